package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"mentor-match/internal/model"
	"mentor-match/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[int64]*model.User
	nextID    int64
	updateErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDAndRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user *model.User, withImage bool) error {
	stored, err := m.stored(user.ID)
	if err != nil {
		return err
	}
	stored.Name, stored.Bio, stored.Skills = user.Name, user.Bio, user.Skills
	if withImage {
		stored.SetImage(user.Image())
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) UpdateImage(_ context.Context, user *model.User) error {
	stored, err := m.stored(user.ID)
	if err != nil {
		return err
	}
	stored.SetImage(user.Image())
	stored.UpdatedAt = time.Now()
	return nil
}

// stored 只改写存量记录中的指定列，模拟按列更新
func (m *mockUserRepo) stored(id int64) (*model.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *mockUserRepo) ListMentors(_ context.Context, skill string, orderBy repository.MentorOrder) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role != model.RoleMentor {
			continue
		}
		if skill != "" {
			raw, _ := u.Skills.Value()
			text, _ := raw.(string)
			if !strings.Contains(text, skill) {
				continue
			}
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool {
		if orderBy == repository.MentorOrderName && result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// add 直接写入一个用户
func (m *mockUserRepo) add(name string, role model.Role) *model.User {
	u := &model.User{
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "$2a$12$placeholder",
		Name:         name,
		Role:         role,
		ImageKind:    model.ImageNone,
	}
	_ = m.Create(context.Background(), u)
	return u
}

// ── Mock Storage ──

type mockStorage struct {
	files     map[string][]byte
	saveErr   error
	deleteErr error
	deleted   []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(_ context.Context, key string, r io.Reader, _ string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[key] = data
	return nil
}

func (m *mockStorage) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, key)
	return nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.files[key]
	return ok, nil
}

func (m *mockStorage) URL(key string) string {
	return fmt.Sprintf("http://cdn.test/uploads/%s", key)
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[jti] = ttl
	return nil
}

var errMockDB = errors.New("mock db failure")
