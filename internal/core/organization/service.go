package organization

import (
	"context"
	"sort"
	"time"

	"github.com/ogurasousui/org-directory/internal/core/city"
	"github.com/ogurasousui/org-directory/internal/core/department"
	"github.com/ogurasousui/org-directory/internal/core/store"
	"github.com/ogurasousui/org-directory/internal/core/user"
	"go.uber.org/zap"
)

// UserStore はユーザーの永続化ストアです。
type UserStore = store.Store[*user.User, int64]

// DepartmentStore は部署の永続化ストアです。
type DepartmentStore = store.Store[*department.Department, int64]

// Service はユーザーと部署に関するユースケースと集計をまとめます。
// 集計はすべて FindAll で取得した全件に対してメモリ上で行います。
type Service struct {
	users       UserStore
	departments DepartmentStore
	logger      *zap.Logger
}

// UseCase は組織サービスの公開インターフェースです。
type UseCase interface {
	Register(ctx context.Context, u *user.User) (*user.User, error)
	AddDepartment(ctx context.Context, d *department.Department) (*department.Department, error)
	Update(ctx context.Context, u *user.User) (*user.User, error)
	Remove(ctx context.Context, u *user.User) (*user.User, error)
	UsersGroupByDepartment(ctx context.Context) (map[int64]*DepartmentUsers, error)
	AvgSalaryGroupByDepartment(ctx context.Context) (map[int64]*DepartmentSalary, error)
	UsersGroupByManagerKievFirst(ctx context.Context) (map[int64]*ManagerReports, error)
	FindByName(ctx context.Context, name *string) ([]*user.User, error)
	FindInRange(ctx context.Context, minSalary, maxSalary float64) ([]*user.User, error)
	FindByDate(ctx context.Context, start, end *time.Time) ([]*user.User, error)
}

var _ UseCase = (*Service)(nil)

// NewService は Service を生成します。
func NewService(users UserStore, departments DepartmentStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:       users,
		departments: departments,
		logger:      logger.Named("organization"),
	}
}

// Register は新しいユーザーを登録し、保存後のユーザーを返します。
func (s *Service) Register(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, newDomainError("register", "user is nil")
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		s.failed("new user wasn't registered", err)
		return nil, nil
	}

	s.logger.Info("new user was successfully registered", zap.Int64("user_id", created.ID))
	return created, nil
}

// AddDepartment は新しい部署を追加し、保存後の部署を返します。
func (s *Service) AddDepartment(ctx context.Context, d *department.Department) (*department.Department, error) {
	if d == nil {
		return nil, newDomainError("add department", "department is nil")
	}

	created, err := s.departments.Create(ctx, d)
	if err != nil {
		s.failed("new department wasn't added", err)
		return nil, nil
	}

	s.logger.Info("new department was successfully added", zap.Int64("department_id", created.ID))
	return created, nil
}

// Update は既存ユーザーを更新し、更新前のスナップショットを返します。
func (s *Service) Update(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, newDomainError("update", "user is nil")
	}

	previous, err := s.users.Update(ctx, u)
	if err != nil {
		s.failed("existent user wasn't updated", err, zap.Int64("user_id", u.ID))
		return nil, nil
	}

	s.logger.Info("existent user was successfully updated", zap.Int64("user_id", u.ID))
	return previous, nil
}

// Remove はユーザーを削除し、削除前のスナップショットを返します。
func (s *Service) Remove(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, newDomainError("remove", "user is nil")
	}

	removed, err := s.users.Remove(ctx, u.ID)
	if err != nil {
		s.failed("existent user wasn't removed", err, zap.Int64("user_id", u.ID))
		return nil, nil
	}

	s.logger.Info("existent user was successfully removed", zap.Int64("user_id", u.ID))
	return removed, nil
}

// UsersGroupByDepartment は全ユーザーを部署 ID ごとにまとめます。
// 部署に所属していないユーザーは NoDepartment に入ります。ユーザーがいない場合は nil を返します。
func (s *Service) UsersGroupByDepartment(ctx context.Context) (map[int64]*DepartmentUsers, error) {
	all, ok := s.allUsers(ctx, "group users by department")
	if !ok {
		return nil, nil
	}

	groups := make(map[int64]*DepartmentUsers)
	for _, u := range all {
		key := u.DepartmentID()
		group, found := groups[key]
		if !found {
			group = &DepartmentUsers{Department: u.Department}
			groups[key] = group
		}
		group.Users = append(group.Users, u)
	}

	s.logger.Info("users were successfully grouped by department", zap.Int("groups", len(groups)))
	return groups, nil
}

// AvgSalaryGroupByDepartment は部署ごとの平均給与を算出します。ユーザーがいない場合は nil を返します。
func (s *Service) AvgSalaryGroupByDepartment(ctx context.Context) (map[int64]*DepartmentSalary, error) {
	all, ok := s.allUsers(ctx, "average salary by department")
	if !ok {
		return nil, nil
	}

	totals := make(map[int64]float64)
	groups := make(map[int64]*DepartmentSalary)
	for _, u := range all {
		key := u.DepartmentID()
		group, found := groups[key]
		if !found {
			group = &DepartmentSalary{Department: u.Department}
			groups[key] = group
		}
		group.Headcount++
		totals[key] += u.Salary
	}
	for key, group := range groups {
		group.Average = totals[key] / float64(group.Headcount)
	}

	s.logger.Info("average salaries were successfully grouped by department", zap.Int("groups", len(groups)))
	return groups, nil
}

// UsersGroupByManagerKievFirst は上長を持つユーザーを上長 ID ごとにまとめます。
// 各グループは Kiev 在住者を先頭に、残りを都市名の降順に並べます。ユーザーがいない場合は nil を返します。
func (s *Service) UsersGroupByManagerKievFirst(ctx context.Context) (map[int64]*ManagerReports, error) {
	all, ok := s.allUsers(ctx, "group users by manager")
	if !ok {
		return nil, nil
	}

	groups := make(map[int64]*ManagerReports)
	for _, u := range all {
		if u == nil || u.Manager == nil {
			continue
		}
		key := u.ManagerID()
		group, found := groups[key]
		if !found {
			group = &ManagerReports{Manager: u.Manager}
			groups[key] = group
		}
		group.Reports = append(group.Reports, u)
	}
	for _, group := range groups {
		sortKievFirst(group.Reports)
	}

	s.logger.Info("users were successfully grouped by manager", zap.Int("groups", len(groups)))
	return groups, nil
}

// sortKievFirst は Kiev 在住かどうか（降順）、都市名（降順）の順で安定ソートします。
func sortKievFirst(users []*user.User) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i].CityName(), users[j].CityName()
		if (a == city.Kiev) != (b == city.Kiev) {
			return a == city.Kiev
		}
		return a > b
	})
}

// FindByName は名前が完全一致（大文字小文字を区別）するユーザーを返します。
// 一致するユーザーがいない場合は空のスライス、ユーザー自体がいない場合は nil を返します。
func (s *Service) FindByName(ctx context.Context, name *string) ([]*user.User, error) {
	if name == nil {
		return nil, newDomainError("find by name", "name is nil")
	}

	return s.filter(ctx, "search by name", func(u *user.User) bool {
		return u.Name == *name
	})
}

// FindInRange は給与が [minSalary, maxSalary] に含まれるユーザーを返します。
func (s *Service) FindInRange(ctx context.Context, minSalary, maxSalary float64) ([]*user.User, error) {
	if minSalary < 0 || maxSalary < 0 || minSalary > maxSalary {
		return nil, newDomainError("find in range", "min salary (%v) and/or max salary (%v) are wrong", minSalary, maxSalary)
	}

	return s.filter(ctx, "search in salary range", func(u *user.User) bool {
		return u.Salary >= minSalary && u.Salary <= maxSalary
	})
}

// FindByDate は勤務開始日時が [start, end] に含まれるユーザーを返します。
func (s *Service) FindByDate(ctx context.Context, start, end *time.Time) ([]*user.User, error) {
	if start == nil || end == nil {
		return nil, newDomainError("find by date", "start and/or end is nil")
	}
	if start.After(*end) {
		return nil, newDomainError("find by date", "start (%s) is after end (%s)", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return s.filter(ctx, "search by start date", func(u *user.User) bool {
		return !u.StartedAt.Before(*start) && !u.StartedAt.After(*end)
	})
}

func (s *Service) filter(ctx context.Context, op string, match func(u *user.User) bool) ([]*user.User, error) {
	all, ok := s.allUsers(ctx, op)
	if !ok {
		return nil, nil
	}

	found := make([]*user.User, 0)
	for _, u := range all {
		if u != nil && match(u) {
			found = append(found, u)
		}
	}

	if len(found) == 0 {
		s.logger.Error("no matching users", zap.String("op", op))
	} else {
		s.logger.Info("matching users were successfully found", zap.String("op", op), zap.Int("count", len(found)))
	}
	return found, nil
}

// allUsers は全ユーザーを取得します。取得できない、または 0 件の場合は false を返します。
func (s *Service) allUsers(ctx context.Context, op string) ([]*user.User, bool) {
	all, err := s.users.FindAll(ctx)
	if err != nil {
		s.failed("can't "+op+", users are absent", err)
		return nil, false
	}
	if len(all) == 0 {
		s.logger.Error("can't "+op+", no users were found")
		return nil, false
	}
	return all, true
}

func (s *Service) failed(msg string, err error, fields ...zap.Field) {
	if !store.IsAbsent(err) {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Error(msg, fields...)
}
