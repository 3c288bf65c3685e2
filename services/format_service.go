package services

import (
	"context"

	"github.com/jacobneff/scorebugger/formats"
)

type FormatService interface {
	List(ctx context.Context) []formats.FormatDefinition
	Get(ctx context.Context, id string) (formats.FormatDefinition, error)
	Suggest(ctx context.Context, teamCount, courtCount int) []formats.FormatDefinition
}

type formatService struct{}

func NewFormatService() FormatService {
	return &formatService{}
}

func (s *formatService) List(_ context.Context) []formats.FormatDefinition {
	return formats.List()
}

func (s *formatService) Get(_ context.Context, id string) (formats.FormatDefinition, error) {
	f, ok := formats.Get(id)
	if !ok {
		return formats.FormatDefinition{}, ErrFormatNotFound
	}
	return f, nil
}

func (s *formatService) Suggest(_ context.Context, teamCount, courtCount int) []formats.FormatDefinition {
	return formats.Suggest(teamCount, courtCount)
}
