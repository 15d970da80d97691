package setup

import (
	"github.com/opchan-dev/opchan/internal/config"
	"github.com/opchan-dev/opchan/internal/handler"
	"github.com/opchan-dev/opchan/internal/pagination"
	"github.com/opchan-dev/opchan/internal/service"
	"github.com/opchan-dev/opchan/internal/storage/fs"
	"github.com/opchan-dev/opchan/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Media   *fs.Storage
	Handler *handler.Handler
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	media, err := fs.New(cfg.Public.MediaRootPath)
	if err != nil {
		return nil, err
	}

	pages, err := pagination.New(cfg.Public.ThreadsPerPage)
	if err != nil {
		return nil, err
	}

	attachments := service.NewAttachment(media, cfg.Public.MaxDecodedImageBytes, cfg.Public.ThumbMaxSize)
	thread := service.NewThread(storage, attachments, pages)

	h := handler.New(thread, media, storage, cfg)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Media:   media,
		Handler: h,
	}, nil
}
