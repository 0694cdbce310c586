package intake

import (
	"fmt"
	"log/slog"

	"grievance/internal/classify"
	"grievance/internal/config"
	"grievance/internal/ocr"
	"grievance/internal/speech"
)

// Build wires a Service from configuration. OCR and speech stay disabled
// when their endpoints are not configured; the rule classifier is used when
// no model file is set.
func Build(cfg config.Config, store Store, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	svc := &Service{
		Store:        store,
		UploadDir:    cfg.UploadDir,
		RecordingDir: cfg.RecordingDir,
		Logger:       log,
	}
	if cfg.ComplaintsCSVPath != "" {
		svc.Export = NewCSVExport(cfg.ComplaintsCSVPath)
	}

	if cfg.ClassifierModelPath != "" {
		model, err := classify.LoadModel(cfg.ClassifierModelPath)
		if err != nil {
			return nil, fmt.Errorf("load classifier: %w", err)
		}
		svc.Classifier = model
		log.Info("classifier model loaded", "path", cfg.ClassifierModelPath, "classes", len(model.Classes))
	} else {
		svc.Classifier = classify.NewRuleClassifier()
		log.Info("using rule classifier")
	}

	if cfg.OCRAPIBaseURL != "" {
		svc.OCR = ocr.NewClient(cfg)
	} else {
		log.Warn("OCR_API_BASE_URL not set; image complaints will be stored without text")
	}

	if cfg.OpenAIAPIKey != "" {
		tr, err := speech.NewTranscriber(cfg)
		if err != nil {
			return nil, err
		}
		svc.Speech = tr
	} else {
		log.Warn("OPENAI_API_KEY not set; voice complaints will be stored without text")
	}
	return svc, nil
}
