package ml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	ErrMissingArtifact   = errors.New("model artifact missing")
	ErrCorruptArtifact   = errors.New("model artifact corrupt")
	ErrUnsupportedFormat = errors.New("unsupported model type")
)

// LoaderOptions 模型加载配置
type LoaderOptions struct {
	Path        string
	Type        string
	InputName   string
	OutputName  string
	OnnxLibrary string
}

type cached struct {
	model Model
	err   error
}

// Loader deserializes the model artifact at a fixed path. Results, including
// failures, are memoized per path for the life of the Loader.
type Loader struct {
	mu     sync.Mutex
	opts   LoaderOptions
	cache  *lru.Cache[string, cached]
	logger *zap.Logger
}

// NewLoader 创建模型加载器
func NewLoader(opts LoaderOptions, logger *zap.Logger) (*Loader, error) {
	if opts.Path == "" {
		return nil, errors.New("model path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.NewWithEvict[string, cached](4, func(key string, c cached) {
		closeModel(c.model, logger.With(zap.String("path", key)))
	})
	if err != nil {
		return nil, err
	}
	return &Loader{opts: opts, cache: cache, logger: logger}, nil
}

// Path 模型文件路径
func (l *Loader) Path() string {
	return l.opts.Path
}

// Load returns the model, deserializing it on the first call only.
func (l *Loader) Load() (Model, error) {
	key, err := filepath.Abs(l.opts.Path)
	if err != nil {
		key = filepath.Clean(l.opts.Path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.cache.Get(key); ok {
		return c.model, c.err
	}

	model, err := l.load(key)
	if err != nil {
		l.logger.Error("model load failed", zap.String("path", key), zap.Error(err))
	} else {
		l.logger.Info("model loaded", zap.String("path", key))
	}
	l.cache.Add(key, cached{model: model, err: err})
	return model, err
}

func (l *Loader) load(path string) (Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return nil, err
	}

	modelType, err := resolveType(l.opts.Type, path)
	if err != nil {
		return nil, err
	}

	switch modelType {
	case TypeTreeEnsemble:
		ensemble, err := LoadTreeEnsemble(path)
		if err != nil {
			return nil, err
		}
		return ensemble, nil
	case TypeONNX:
		model, err := newONNXModel(path, onnxOptions{
			InputName:   l.opts.InputName,
			OutputName:  l.opts.OutputName,
			LibraryPath: l.opts.OnnxLibrary,
		})
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, modelType)
	}
}

func resolveType(configured, path string) (string, error) {
	if configured != "" {
		return strings.ToLower(configured), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return TypeONNX, nil
	case ".json":
		return TypeTreeEnsemble, nil
	default:
		return "", fmt.Errorf("%w: cannot infer type from %q", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Close releases every loaded model.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Purge()
}

func closeModel(model Model, logger *zap.Logger) {
	closer, ok := model.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("failed to release model", zap.Error(err))
	}
}
