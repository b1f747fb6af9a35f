package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/org-directory/internal/core/department"
	"github.com/ogurasousui/org-directory/internal/core/store"
	pgdb "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	applog "github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
)

const selectDepartments = `
        SELECT d.id, d.name
          FROM departments d`

const selectDepartmentByID = selectDepartments + `
         WHERE d.id = $1`

var _ store.Store[*department.Department, int64] = (*DepartmentRepository)(nil)

// DepartmentRepository は PostgreSQL を利用した部署永続化の実装です。
type DepartmentRepository struct {
	*entityStore[*department.Department]
}

// NewDepartmentRepository は DepartmentRepository を生成します。
func NewDepartmentRepository(factory pgdb.SessionFactory, logger *zap.Logger) *DepartmentRepository {
	return &DepartmentRepository{
		entityStore: newEntityStore(factory, departmentMapping, applog.OrNop(logger).Named("department_repository")),
	}
}

var departmentMapping = mapping[*department.Department]{
	name:       "department",
	selectAll:  selectDepartments,
	selectByID: selectDepartmentByID,
	deleteByID: `DELETE FROM departments WHERE id = $1`,
	scan:       scanDepartment,
	insert: func(ctx context.Context, q pgdb.Queryer, d *department.Department) (int64, error) {
		var id int64
		err := q.QueryRow(ctx, `INSERT INTO departments (name) VALUES ($1) RETURNING id`, d.Name).Scan(&id)
		return id, err
	},
	merge: func(ctx context.Context, q pgdb.Queryer, d *department.Department) error {
		tag, err := q.Exec(ctx, `UPDATE departments SET name = $1 WHERE id = $2`, d.Name, d.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		return nil
	},
	id:    func(d *department.Department) int64 { return d.ID },
	setID: func(d *department.Department, id int64) { d.ID = id },
}

func scanDepartment(row pgx.Row) (*department.Department, error) {
	var d department.Department
	if err := row.Scan(&d.ID, &d.Name); err != nil {
		return nil, translateNoRows(err)
	}
	return &d, nil
}
