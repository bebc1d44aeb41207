package infrastructure

import (
	"time"

	"github.com/JaimeStill/shroud/internal/config"
	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/detection/llm"
	"github.com/JaimeStill/shroud/internal/detection/ner"
)

// Registrations assembles the detector registrations described by cfg:
// pattern recognizers first, then the NER sidecar and the LLM detector for
// each language they are configured to join. Each statistical detector is a
// single instance shared by its languages, so the registry checks it once.
func Registrations(cfg *config.DetectionConfig) ([]detection.Registration, error) {
	set, err := recognizers(cfg.RecognizersFile)
	if err != nil {
		return nil, err
	}

	regs, err := set.Registrations()
	if err != nil {
		return nil, err
	}

	if cfg.NER.Enabled {
		client := ner.New(ner.Config{
			URL:      cfg.NER.URL,
			Timeout:  cfg.NER.TimeoutDuration(),
			Entities: cfg.NER.Entities,
		})
		for _, lang := range cfg.NER.Languages {
			regs = append(regs, detection.Registration{Language: lang, Detector: client})
		}
	}

	if cfg.LLM.Enabled {
		d := llm.New(llm.Config{
			BaseURL:  cfg.LLM.BaseURL,
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
			Timeout:  cfg.LLM.TimeoutDuration(),
			Entities: cfg.LLM.Entities,
		})
		for _, lang := range cfg.LLM.Languages {
			regs = append(regs, detection.Registration{Language: lang, Detector: d})
		}
	}

	return regs, nil
}

func recognizers(path string) (detection.RecognizerSet, error) {
	if path == "" {
		return detection.DefaultRecognizerSet()
	}
	return detection.LoadRecognizerFile(path)
}

// checkTimeout bounds startup checking by the slowest enabled detector.
func checkTimeout(cfg *config.DetectionConfig) time.Duration {
	d := 10 * time.Second
	if cfg.NER.Enabled {
		d = max(d, cfg.NER.TimeoutDuration())
	}
	if cfg.LLM.Enabled {
		d = max(d, cfg.LLM.TimeoutDuration())
	}
	return d
}
