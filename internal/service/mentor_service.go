package service

import (
	"context"

	"go.uber.org/zap"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
)

// MentorService 导师列表业务接口
type MentorService interface {
	ListMentors(ctx context.Context, caller Caller, q *dto.ListMentorsQuery) ([]dto.MentorResponse, error)
}

type mentorService struct {
	repo   *repository.Repository
	links  imageLinker
	logger *zap.Logger
}

// NewMentorService 创建 MentorService 实例
func NewMentorService(repo *repository.Repository, links imageLinker, logger *zap.Logger) MentorService {
	return &mentorService{repo: repo, links: links, logger: logger}
}

func (s *mentorService) ListMentors(ctx context.Context, caller Caller, q *dto.ListMentorsQuery) ([]dto.MentorResponse, error) {
	if caller.Role != model.RoleMentee {
		return nil, ErrForbidden
	}

	// 未知的 order_by 按默认 id 排序
	order := repository.MentorOrderID
	switch q.OrderBy {
	case "name":
		order = repository.MentorOrderName
	case "skill":
		order = repository.MentorOrderSkill
	}

	mentors, err := s.repo.User.ListMentors(ctx, q.Skill, order)
	if err != nil {
		s.logger.Error("查询导师列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.MentorResponse, 0, len(mentors))
	for i := range mentors {
		m := &mentors[i]
		imageURL := s.links.imageURL(m)
		if imageURL == "" {
			imageURL = placeholderURL(m.Name)
		}
		list = append(list, dto.MentorResponse{
			ID:        m.ID,
			Name:      m.Name,
			Bio:       bioOrEmpty(m.Bio),
			Skills:    m.Skills.Strings(),
			HasImage:  m.HasImage(),
			ImageURL:  imageURL,
			CreatedAt: m.CreatedAt,
		})
	}
	return list, nil
}
