package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/org-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/org-directory/internal/core/organization"
	"github.com/ogurasousui/org-directory/internal/core/user"
	"github.com/ogurasousui/org-directory/internal/platform/config"
	pg "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	"github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
)

type options struct {
	name      *string
	minSalary *float64
	maxSalary *float64
	from      *time.Time
	to        *time.Time
}

// report は集計結果と検索結果をまとめた出力です。
type report struct {
	UsersByDepartment map[int64]*organization.DepartmentUsers  `json:"users_by_department"`
	AvgSalary         map[int64]*organization.DepartmentSalary `json:"avg_salary_by_department"`
	UsersByManager    map[int64]*organization.ManagerReports   `json:"users_by_manager_kiev_first"`
	ByName            []*user.User                             `json:"by_name,omitempty"`
	InSalaryRange     []*user.User                             `json:"in_salary_range,omitempty"`
	ByStartDate       []*user.User                             `json:"by_start_date,omitempty"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		name       = flag.String("name", "", "search users by exact name")
		minSalary  = flag.Float64("min-salary", -1, "lower salary bound (inclusive)")
		maxSalary  = flag.Float64("max-salary", -1, "upper salary bound (inclusive)")
		from       = flag.String("from", "", "start date lower bound (RFC3339)")
		to         = flag.String("to", "", "start date upper bound (RFC3339)")
	)
	flag.Parse()

	opts, err := parseOptions(*name, *minSalary, *maxSalary, *from, *to)
	if err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pg.NewPool(ctx, cfg.Database, lg)
	if err != nil {
		lg.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	factory := pg.NewPoolSessionFactory(dbPool)
	svc := organization.NewService(
		postgres.NewUserRepository(factory, lg),
		postgres.NewDepartmentRepository(factory, lg),
		lg,
	)

	if err := run(ctx, svc, opts, os.Stdout); err != nil {
		lg.Fatal("report failed", zap.Error(err))
	}
}

func parseOptions(name string, minSalary, maxSalary float64, from, to string) (options, error) {
	var opts options
	if name != "" {
		opts.name = &name
	}
	if minSalary >= 0 || maxSalary >= 0 {
		opts.minSalary, opts.maxSalary = &minSalary, &maxSalary
	}
	if from != "" || to != "" {
		start, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return options{}, fmt.Errorf("parse -from: %w", err)
		}
		end, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return options{}, fmt.Errorf("parse -to: %w", err)
		}
		opts.from, opts.to = &start, &end
	}
	return opts, nil
}

func run(ctx context.Context, svc organization.UseCase, opts options, w io.Writer) error {
	var (
		out report
		err error
	)

	if out.UsersByDepartment, err = svc.UsersGroupByDepartment(ctx); err != nil {
		return err
	}
	if out.AvgSalary, err = svc.AvgSalaryGroupByDepartment(ctx); err != nil {
		return err
	}
	if out.UsersByManager, err = svc.UsersGroupByManagerKievFirst(ctx); err != nil {
		return err
	}
	if opts.name != nil {
		if out.ByName, err = svc.FindByName(ctx, opts.name); err != nil {
			return err
		}
	}
	if opts.minSalary != nil && opts.maxSalary != nil {
		if out.InSalaryRange, err = svc.FindInRange(ctx, *opts.minSalary, *opts.maxSalary); err != nil {
			return err
		}
	}
	if opts.from != nil && opts.to != nil {
		if out.ByStartDate, err = svc.FindByDate(ctx, opts.from, opts.to); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
