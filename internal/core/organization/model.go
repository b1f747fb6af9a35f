package organization

import (
	"github.com/ogurasousui/org-directory/internal/core/department"
	"github.com/ogurasousui/org-directory/internal/core/user"
)

// NoDepartment は部署に所属していないユーザーのグループキーです。
const NoDepartment int64 = 0

// DepartmentUsers は部署ごとのユーザー一覧です。
// 部署に所属していないグループの Department は nil です。
type DepartmentUsers struct {
	Department *department.Department `json:"department"`
	Users      []*user.User           `json:"users"`
}

// DepartmentSalary は部署ごとの平均給与です。
type DepartmentSalary struct {
	Department *department.Department `json:"department"`
	Headcount  int                    `json:"headcount"`
	Average    float64                `json:"average"`
}

// ManagerReports は上長ごとの部下一覧です。
type ManagerReports struct {
	Manager *user.User   `json:"manager"`
	Reports []*user.User `json:"reports"`
}
