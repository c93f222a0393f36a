package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService handles business logic for projects and their BOQ
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.ItemRepository
	logger      *zap.Logger
}

// NewProjectService creates a new project service instance
func NewProjectService(projectRepo *repository.ProjectRepository, itemRepo *repository.ItemRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, itemRepo: itemRepo, logger: logger}
}

// Create registers a new project, optionally with bill-of-quantities lines
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	project := &domain.Project{
		Code:      req.Code,
		Name:      req.Name,
		OwnerName: req.OwnerName,
		Budget:    req.Budget,
		Status:    domain.ProjectStatusActive,
	}

	for _, line := range req.BOQItems {
		if _, err := s.itemRepo.GetByID(ctx, line.ItemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: item %s", ErrNotFound, line.ItemID)
			}
			return nil, fmt.Errorf("failed to look up item: %w", err)
		}
		project.BOQItems = append(project.BOQItems, domain.ProjectBOQ{
			ItemID:        line.ItemID,
			TotalQuantity: line.TotalQuantity,
		})
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created",
		zap.String("projectID", project.ID.String()),
		zap.String("name", project.Name))

	project, err := s.projectRepo.GetWithBOQ(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Get returns one project with its BOQ lines
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetWithBOQ(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Update applies a partial update to a project
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.OwnerName != nil {
		project.OwnerName = *req.OwnerName
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}
	if req.Status != nil {
		project.Status = domain.ProjectStatus(*req.Status)
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	project, err = s.projectRepo.GetWithBOQ(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// List returns a page of projects
func (s *ProjectService) List(ctx context.Context, page, pageSize int, search string, status *domain.ProjectStatus) ([]domain.ProjectDTO, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, page, pageSize, search, status, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}
	return dtos, total, nil
}
