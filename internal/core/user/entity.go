package user

import (
	"time"

	"github.com/ogurasousui/org-directory/internal/core/city"
	"github.com/ogurasousui/org-directory/internal/core/department"
)

// User はユーザー（社員）エンティティです。
// Department / City / Manager は参照であり、所有はしません。
type User struct {
	ID         int64                  `json:"id"`
	Name       string                 `json:"name"`
	Salary     float64                `json:"salary"`
	StartedAt  time.Time              `json:"started_at"`
	Department *department.Department `json:"department,omitempty"`
	City       *city.City             `json:"city,omitempty"`
	Manager    *User                  `json:"manager,omitempty"`
}

// Clone はフィールド単位のシャローコピーを返します。
// Department / City / Manager のポインタは元のユーザーと共有されます。
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:         u.ID,
		Name:       u.Name,
		Salary:     u.Salary,
		StartedAt:  u.StartedAt,
		Department: u.Department,
		City:       u.City,
		Manager:    u.Manager,
	}
}

// DepartmentID は所属部署の ID を返します。未所属の場合は 0 です。
func (u *User) DepartmentID() int64 {
	if u == nil || u.Department == nil {
		return 0
	}
	return u.Department.ID
}

// CityName は居住都市名を返します。未設定の場合は空文字列です。
func (u *User) CityName() string {
	if u == nil || u.City == nil {
		return ""
	}
	return u.City.Name
}

// ManagerID は上長の ID を返します。上長がいない場合は 0 です。
func (u *User) ManagerID() int64 {
	if u == nil || u.Manager == nil {
		return 0
	}
	return u.Manager.ID
}
