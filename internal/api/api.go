package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ged-backend/internal/core"
	"ged-backend/internal/core/align"
	"ged-backend/internal/core/dataset"
	"ged-backend/internal/core/labels"
	"ged-backend/internal/database"
	"ged-backend/internal/messaging"
	"ged-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxListRuns = 100

type Detector interface {
	Detect(sentence string) ([]core.WordStatus, error)
}

type BackendService struct {
	db        *gorm.DB
	publisher messaging.Publisher

	// encoder and detector are optional; endpoints using them return 503
	// when they are nil.
	encoder  align.Encoder
	detector Detector
	maxLen   int
}

func NewBackendService(db *gorm.DB, publisher messaging.Publisher, encoder align.Encoder, detector Detector, maxLen int) *BackendService {
	if maxLen <= 0 {
		maxLen = core.DefaultMaxLen
	}
	return &BackendService{db: db, publisher: publisher, encoder: encoder, detector: detector, maxLen: maxLen}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Post("/labels", RestHandler(s.GenerateLabels))
	r.Post("/examples", RestHandler(s.BuildExample))
	r.Post("/predict", RestHandler(s.Detect))

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", RestHandler(s.CreateRun))
		r.Get("/", RestHandler(s.ListRuns))
		r.Get("/{run_id}", RestHandler(s.GetRun))
	})
}

func (s *BackendService) GenerateLabels(r *http.Request) (any, error) {
	req, err := ParseRequest[api.GenerateLabelsRequest](r)
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(req.Incorrect)
	wordLabels := labels.Generate(tokens, strings.Fields(req.Correct))

	if tokens == nil {
		tokens = []string{}
	}

	return api.GenerateLabelsResponse{
		Tokens:         tokens,
		Labels:         wordLabels,
		IncorrectCount: labels.CountIncorrect(wordLabels),
	}, nil
}

func (s *BackendService) BuildExample(r *http.Request) (any, error) {
	if s.encoder == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "no tokenizer loaded")
	}

	req, err := ParseRequest[api.BuildExampleRequest](r)
	if err != nil {
		return nil, err
	}

	for i, l := range req.Labels {
		if l != labels.Correct && l != labels.Incorrect {
			return nil, CodedErrorf(http.StatusUnprocessableEntity, "invalid label %d for word %d: labels must be %d or %d", l, i, labels.Correct, labels.Incorrect)
		}
	}

	example, err := align.Build(req.Sentence, req.Labels, s.encoder, s.maxLen)
	if err != nil {
		slog.Error("error building example", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error building example: %w", err)
	}

	return api.BuildExampleResponse{
		InputIDs:      example.InputIDs,
		AttentionMask: example.AttentionMask,
		Labels:        example.Labels,
	}, nil
}

func (s *BackendService) Detect(r *http.Request) (any, error) {
	if s.detector == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "no detection model loaded")
	}

	req, err := ParseRequest[api.DetectRequest](r)
	if err != nil {
		return nil, err
	}

	words, err := s.detector.Detect(req.Sentence)
	if err != nil {
		slog.Error("error running detection", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error running detection: %w", err)
	}

	return api.DetectResponse{Words: convertWordStatuses(words)}, nil
}

func pipelineConfig(req api.CreateRunRequest) (core.PipelineConfig, error) {
	cfg := core.DefaultPipelineConfig("")
	cfg.Bucket = req.Bucket

	for _, split := range []struct {
		name  string
		files api.SplitFiles
		dst   *core.SplitFiles
	}{
		{"Train", req.Train, &cfg.Train},
		{"Validation", req.Validation, &cfg.Validation},
		{"Test", req.Test, &cfg.Test},
	} {
		if split.files.Source == "" || split.files.Target == "" {
			return cfg, CodedErrorf(http.StatusUnprocessableEntity, "%s.Source and %s.Target are required", split.name, split.name)
		}
		*split.dst = core.SplitFiles{Source: split.files.Source, Target: split.files.Target}
	}

	switch req.TokenizerType {
	case "":
	case string(core.HFTokenizer), string(core.WordPieceTokenizer):
		cfg.Tokenizer.Type = core.TokenizerType(req.TokenizerType)
	default:
		return cfg, CodedErrorf(http.StatusUnprocessableEntity, "invalid tokenizer type '%s'", req.TokenizerType)
	}
	if req.TokenizerSource != "" {
		cfg.Tokenizer.Source = req.TokenizerSource
	}

	if req.Mismatch != "" {
		policy, err := dataset.ParseMismatchPolicy(req.Mismatch)
		if err != nil {
			return cfg, CodedErrorf(http.StatusUnprocessableEntity, "invalid mismatch policy: %w", err)
		}
		cfg.Mismatch = policy
	}

	if req.MaxLen < 0 || req.Epochs < 0 || req.LearningRate < 0 || req.BatchSize < 0 {
		return cfg, CodedErrorf(http.StatusUnprocessableEntity, "numeric run parameters must not be negative")
	}
	if req.MaxLen > 0 {
		cfg.MaxLen = req.MaxLen
	}
	if req.Limit != nil {
		cfg.Limit = *req.Limit
	}
	if req.ModelName != "" {
		cfg.Args.ModelName = req.ModelName
	}
	if req.Epochs > 0 {
		cfg.Args.NumTrainEpochs = req.Epochs
	}
	if req.LearningRate > 0 {
		cfg.Args.LearningRate = req.LearningRate
	}
	if req.BatchSize > 0 {
		cfg.Args.PerDeviceTrainBatchSize = req.BatchSize
	}

	return cfg, nil
}

func (s *BackendService) CreateRun(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CreateRunRequest](r)
	if err != nil {
		return nil, err
	}

	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if req.Bucket == "" {
		return nil, CodedErrorf(http.StatusUnprocessableEntity, "Bucket is required")
	}

	cfg, err := pipelineConfig(req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error serializing run config: %w", err)
	}

	ctx := r.Context()

	run := database.TrainingRun{
		Id:            uuid.New(),
		Name:          req.Name,
		Status:        database.JobQueued,
		TokenizerType: string(cfg.Tokenizer.Type),
		Config:        datatypes.JSON(data),
		CreationTime:  time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		slog.Error("error creating training run", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create training run")
	}

	if err := s.publisher.PublishTrainTask(ctx, messaging.TrainTaskPayload{RunId: run.Id}); err != nil {
		slog.Error("error publishing train task", "run_id", run.Id, "error", err)
		database.SaveRunError(ctx, s.db, run.Id, "failed to queue training run")
		database.UpdateRunStatus(ctx, s.db, run.Id, database.JobFailed) //nolint:errcheck
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue training run")
	}

	slog.Info("submitted training run", "run_id", run.Id, "name", run.Name)

	return api.CreateRunResponse{RunId: run.Id}, nil
}

func (s *BackendService) ListRuns(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListRunsParams](r)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 || limit > maxListRuns {
		limit = maxListRuns
	}

	query := s.db.WithContext(r.Context()).Order("creation_time DESC").Limit(limit)
	if params.Status != "" {
		query = query.Where("status = ?", strings.ToUpper(params.Status))
	}

	var runs []database.TrainingRun
	if err := query.Find(&runs).Error; err != nil {
		slog.Error("error listing training runs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing training runs")
	}

	return convertRuns(runs), nil
}

func (s *BackendService) GetRun(r *http.Request) (any, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return nil, err
	}

	var run database.TrainingRun
	if err := s.db.WithContext(r.Context()).Preload("Metrics").Preload("Errors").First(&run, "id = ?", runId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "training run not found")
		}
		slog.Error("error getting training run", "run_id", runId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving training run")
	}

	return convertRun(run), nil
}
