package zaplog

import (
	"io"

	"github.com/AnishMulay/devcore/internal/log_service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogService forwards log events to a zap logger. Metadata entries become
// structured fields.
type ZapLogService struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	nodeID string
}

func NewZapLogService(nodeID string, minLogLevel string, development bool) (*ZapLogService, error) {
	level := zap.NewAtomicLevelAt(toZapLevel(minLogLevel))

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogService{
		logger: logger.With(zap.String("node", nodeID)),
		level:  level,
		nodeID: nodeID,
	}, nil
}

// NewZapLogServiceWithWriter builds a JSON logger writing to w.
func NewZapLogServiceWithWriter(nodeID string, minLogLevel string, w io.Writer) *ZapLogService {
	level := zap.NewAtomicLevelAt(toZapLevel(minLogLevel))
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)

	return &ZapLogService{
		logger: zap.New(core).With(zap.String("node", nodeID)),
		level:  level,
		nodeID: nodeID,
	}
}

func toZapLevel(level string) zapcore.Level {
	switch log_service.GetLevelValue(level) {
	case log_service.DebugLevelValue:
		return zapcore.DebugLevel
	case log_service.WarnLevelValue:
		return zapcore.WarnLevel
	case log_service.ErrorLevelValue:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (ls *ZapLogService) SetMinLogLevel(level string) {
	ls.level.SetLevel(toZapLevel(level))
}

func (ls *ZapLogService) Sync() error {
	return ls.logger.Sync()
}

func fields(event log_service.LogEvent) []zap.Field {
	fs := make([]zap.Field, 0, len(event.Metadata)+1)
	if !event.Timestamp.IsZero() {
		fs = append(fs, zap.Time("eventTime", event.Timestamp))
	}
	for k, v := range event.Metadata {
		fs = append(fs, zap.Any(k, v))
	}
	return fs
}

func (ls *ZapLogService) Debug(event log_service.LogEvent) {
	ls.logger.Debug(event.Message, fields(event)...)
}

func (ls *ZapLogService) Info(event log_service.LogEvent) {
	ls.logger.Info(event.Message, fields(event)...)
}

func (ls *ZapLogService) Warn(event log_service.LogEvent) {
	ls.logger.Warn(event.Message, fields(event)...)
}

func (ls *ZapLogService) Error(event log_service.LogEvent) {
	ls.logger.Error(event.Message, fields(event)...)
}

var _ log_service.LogService = (*ZapLogService)(nil)
