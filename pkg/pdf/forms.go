package pdf

import (
	lpdf "github.com/ledongthuc/pdf"

	"github.com/JaimeStill/shroud/pkg/document"
)

// formRegions returns the page-space bounds of every form XObject drawn by
// the page content. Forms are not interpreted, so anything they render can be
// painted over on commit but not removed.
func formRegions(p lpdf.Page, ops []operation, fonts map[string]*font, frame pageFrame) []document.Rect {
	xobjects := p.Resources().Key("XObject")
	if xobjects.IsNull() {
		return nil
	}

	var regions []document.Rect
	in := newInterpreter(fonts)
	in.place = func(name string, ctm matrix) {
		x := xobjects.Key(name)
		if x.Key("Subtype").Name() != "Form" {
			return
		}
		bbox, ok := rectValue(x.Key("BBox"))
		if !ok {
			return
		}
		m := identity
		if v := x.Key("Matrix"); v.Kind() == lpdf.Array && v.Len() == 6 {
			for i := range 6 {
				m[i] = v.Index(i).Float64()
			}
		}
		regions = append(regions, frame.toPage(transformRect(bbox, m.mul(ctm))))
	}
	in.run(ops, func(operation, []element) {})

	return regions
}

func rectValue(v lpdf.Value) (document.Rect, bool) {
	if v.Kind() != lpdf.Array || v.Len() != 4 {
		return document.Rect{}, false
	}
	r := document.Rect{
		X0: v.Index(0).Float64(),
		Y0: v.Index(1).Float64(),
		X1: v.Index(2).Float64(),
		Y1: v.Index(3).Float64(),
	}.Normalize()
	return r, !r.Empty()
}

// transformRect returns the bounding box of r's corners mapped through m.
func transformRect(r document.Rect, m matrix) document.Rect {
	x0, y0 := m.apply(r.X0, r.Y0)
	out := document.Rect{X0: x0, Y0: y0, X1: x0, Y1: y0}
	for _, c := range [3][2]float64{{r.X1, r.Y0}, {r.X0, r.Y1}, {r.X1, r.Y1}} {
		x, y := m.apply(c[0], c[1])
		out = out.Union(document.Rect{X0: x, Y0: y, X1: x, Y1: y})
	}
	return out
}
