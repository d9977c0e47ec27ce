package resthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sir_venger/filedrop/internal/config"
	"github.com/sir_venger/filedrop/internal/log"
	"github.com/sir_venger/filedrop/internal/metrics"
	"github.com/sir_venger/filedrop/internal/usecase/filesvc"
	"github.com/sir_venger/filedrop/pkg/fileproto"
	"github.com/sir_venger/filedrop/pkg/httperrors"
)

// Deps — внешние зависимости HTTP-слоя. Files обязателен, остальное опционально.
type Deps struct {
	Files   filesvc.Service
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

type Server struct {
	FilesService filesvc.Service
	Cfg          *config.Config
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	pages        *pages
}

// NewServer конструктор. Файловый сервис создаётся снаружи и живёт весь процесс.
func NewServer(cfg *config.Config, deps Deps) (http.Handler, *Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	srv := &Server{
		FilesService: deps.Files,
		Cfg:          cfg,
		Logger:       logger,
		Metrics:      deps.Metrics,
		pages:        p,
	}

	return srv.routes(), srv, nil
}

// routes регистрирует обработчики страниц, API загрузки/выдачи и служебные эндпоинты.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.getIndexPage)
	r.Get(fileproto.PathUpload, s.getUploadPage)
	r.Post(fileproto.PathUpload, s.postUpload)
	r.Get(fileproto.PathDownload, s.getDownload)
	r.Get(fileproto.PathFiles, s.getFiles)

	r.Get(fileproto.PathInfo, s.getInfo)
	r.Get(fileproto.PathVersion, s.getVersion)
	r.Get(fileproto.PathHealth, s.health)
	r.Handle(fileproto.PathMetrics, s.Metrics.Handler())

	r.NotFound(s.getNotFoundPage)

	return r
}

// fail пишет стабильный ответ об ошибке и логирует первопричину.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := httperrors.Classify(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s: %s", r.Method, r.URL.Path, msg)
	} else {
		s.Logger.Warn("%s %s: %s", r.Method, r.URL.Path, msg)
	}
	s.Logger.Cause(err)

	httperrors.Write(w, err)
}
