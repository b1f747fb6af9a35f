package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/org-directory/internal/core/city"
	"github.com/ogurasousui/org-directory/internal/core/department"
	"github.com/ogurasousui/org-directory/internal/core/store"
	"github.com/ogurasousui/org-directory/internal/core/user"
	pgdb "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	applog "github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
)

const selectUsers = `
        SELECT u.id, u.name, u.salary, u.started_at,
               d.id, d.name,
               c.id, c.name,
               m.id, m.name
          FROM users u
          LEFT JOIN departments d ON d.id = u.department_id
          LEFT JOIN cities c ON c.id = u.city_id
          LEFT JOIN users m ON m.id = u.manager_id`

const selectUserByID = selectUsers + `
         WHERE u.id = $1`

var _ store.Store[*user.User, int64] = (*UserRepository)(nil)

// UserRepository は PostgreSQL を利用したユーザー永続化の実装です。
// 取得したユーザーの Department / City は完全な値、Manager は ID と名前のみのスナップショットです。
type UserRepository struct {
	*entityStore[*user.User]
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(factory pgdb.SessionFactory, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		entityStore: newEntityStore(factory, userMapping, applog.OrNop(logger).Named("user_repository")),
	}
}

var userMapping = mapping[*user.User]{
	name:       "user",
	selectAll:  selectUsers,
	selectByID: selectUserByID,
	deleteByID: `DELETE FROM users WHERE id = $1`,
	scan:       scanUser,
	insert: func(ctx context.Context, q pgdb.Queryer, u *user.User) (int64, error) {
		var id int64
		err := q.QueryRow(ctx, `
        INSERT INTO users (name, salary, started_at, department_id, city_id, manager_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, u.Name, u.Salary, u.StartedAt, nullableID(u.DepartmentID()), nullableID(cityID(u)), nullableID(u.ManagerID())).Scan(&id)
		return id, err
	},
	merge: func(ctx context.Context, q pgdb.Queryer, u *user.User) error {
		tag, err := q.Exec(ctx, `
        UPDATE users
           SET name = $1,
               salary = $2,
               started_at = $3,
               department_id = $4,
               city_id = $5,
               manager_id = $6
         WHERE id = $7
    `, u.Name, u.Salary, u.StartedAt, nullableID(u.DepartmentID()), nullableID(cityID(u)), nullableID(u.ManagerID()), u.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		return nil
	},
	id:    func(u *user.User) int64 { return u.ID },
	setID: func(u *user.User, id int64) { u.ID = id },
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                 int64
		name               string
		salary             float64
		startedAt          time.Time
		deptID, cID, mgrID sql.NullInt64
		deptName, cityName sql.NullString
		managerName        sql.NullString
	)

	if err := row.Scan(&id, &name, &salary, &startedAt, &deptID, &deptName, &cID, &cityName, &mgrID, &managerName); err != nil {
		return nil, translateNoRows(err)
	}

	u := &user.User{
		ID:        id,
		Name:      name,
		Salary:    salary,
		StartedAt: startedAt,
	}
	if deptID.Valid {
		u.Department = &department.Department{ID: deptID.Int64, Name: deptName.String}
	}
	if cID.Valid {
		u.City = &city.City{ID: cID.Int64, Name: cityName.String}
	}
	if mgrID.Valid {
		u.Manager = &user.User{ID: mgrID.Int64, Name: managerName.String}
	}
	return u, nil
}

func cityID(u *user.User) int64 {
	if u.City == nil {
		return 0
	}
	return u.City.ID
}
