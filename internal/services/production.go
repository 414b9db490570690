package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
)

const defaultEventPageSize = 25

type ListEventsInput struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Page      int
}

type ReportInput struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

type EventPage struct {
	Data     []*types.SubtaskEvent `json:"data"`
	Total    int64                 `json:"total"`
	NextPage *int                  `json:"nextPage"`
	PrevPage *int                  `json:"prevPage"`
}

type EmployeeRef struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}

type ProductRef struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

type RankedEmployee struct {
	UserID   string `json:"userId"`
	Quantity int    `json:"quantity"`
}

type ProductionDay struct {
	Day      string `json:"day"`
	Quantity int    `json:"quantity"`
}

type GeneralStats struct {
	TotalProduced            int                    `json:"totalProduced"`
	TotalEmployees           int                    `json:"totalEmployees"`
	AvgProductionPerEmployee float64                `json:"avgProductionPerEmployee"`
	HighProductionDays       []ProductionDay        `json:"highProductionDays"`
	EmployeeRanking          []RankedEmployee       `json:"employeeRanking"`
	EmployeesList            map[string]EmployeeRef `json:"employeesList"`
	ProductsList             map[string]ProductRef  `json:"productsList"`
}

type ProductionReport struct {
	GeneralStats GeneralStats   `json:"generalStats"`
	ByDay        map[string]int `json:"byDay"`
	ByEmployee   map[string]int `json:"byEmployee"`
	ByProduct    map[string]int `json:"byProduct"`
}

// ProductionService answers reporting questions over the completion event
// log. It only ever reads; all writes to the log go through the completion
// engine.
type ProductionService interface {
	ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error)
	Report(ctx context.Context, input ReportInput) (*ProductionReport, error)
}

type productionService struct {
	db        *gorm.DB
	log       *logger.Logger
	eventRepo repos.SubtaskEventRepo
}

func NewProductionService(db *gorm.DB, baseLog *logger.Logger, eventRepo repos.SubtaskEventRepo) ProductionService {
	serviceLog := baseLog.With("service", "ProductionService")
	return &productionService{db: db, log: serviceLog, eventRepo: eventRepo}
}

func (ps *productionService) ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	limit, page := normalizePage(input.Limit, input.Page, defaultEventPageSize)

	filter := repos.SubtaskEventFilter{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}

	var (
		total  int64
		events []*types.SubtaskEvent
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		count, err := ps.eventRepo.Count(groupCtx, nil, filter)
		if err != nil {
			return fmt.Errorf("count completion events: %w", err)
		}
		total = count
		return nil
	})
	group.Go(func() error {
		pageFilter := filter
		pageFilter.Limit = limit + 1
		pageFilter.Offset = (page - 1) * limit
		rows, err := ps.eventRepo.List(groupCtx, nil, pageFilter)
		if err != nil {
			return fmt.Errorf("list completion events: %w", err)
		}
		events = rows
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	events, nextPage, prevPage := trimPage(events, page, limit)
	return &EventPage{
		Data:     events,
		Total:    total,
		NextPage: nextPage,
		PrevPage: prevPage,
	}, nil
}

func (ps *productionService) Report(ctx context.Context, input ReportInput) (*ProductionReport, error) {
	filter := repos.SubtaskEventFilter{
		UserID:    input.UserID,
		ProductID: input.ProductID,
	}
	// A date range only applies when both ends are supplied.
	if input.StartDate != nil && input.EndDate != nil {
		filter.StartDate = input.StartDate
		filter.EndDate = input.EndDate
	}

	events, err := ps.eventRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("load production events: %w", err)
	}

	report := &ProductionReport{
		GeneralStats: GeneralStats{
			HighProductionDays: []ProductionDay{},
			EmployeeRanking:    []RankedEmployee{},
			EmployeesList:      map[string]EmployeeRef{},
			ProductsList:       map[string]ProductRef{},
		},
		ByDay:      map[string]int{},
		ByEmployee: map[string]int{},
		ByProduct:  map[string]int{},
	}

	for _, event := range events {
		subtask := event.Subtask
		if subtask == nil || subtask.Task == nil || subtask.Task.User == nil || subtask.Product == nil {
			continue
		}
		quantity := event.QuantityCompleted
		user := subtask.Task.User
		product := subtask.Product

		report.GeneralStats.TotalProduced += quantity
		report.GeneralStats.EmployeesList[user.ID.String()] = EmployeeRef{
			Name:     user.Name,
			LastName: user.LastName,
		}
		report.GeneralStats.ProductsList[product.ID.String()] = ProductRef{
			Name:      product.Name,
			Reference: product.Reference,
		}

		day := event.Timestamp.UTC().Format("2006-01-02")
		report.ByDay[day] += quantity
		report.ByEmployee[user.ID.String()] += quantity
		report.ByProduct[product.ID.String()] += quantity
	}

	totalEmployees := len(report.GeneralStats.EmployeesList)
	report.GeneralStats.TotalEmployees = totalEmployees
	divisor := totalEmployees
	if divisor == 0 {
		divisor = 1
	}
	average := float64(report.GeneralStats.TotalProduced) / float64(divisor)
	report.GeneralStats.AvgProductionPerEmployee = average

	for userID, quantity := range report.ByEmployee {
		report.GeneralStats.EmployeeRanking = append(report.GeneralStats.EmployeeRanking, RankedEmployee{
			UserID:   userID,
			Quantity: quantity,
		})
	}
	sort.Slice(report.GeneralStats.EmployeeRanking, func(i, j int) bool {
		left, right := report.GeneralStats.EmployeeRanking[i], report.GeneralStats.EmployeeRanking[j]
		if left.Quantity != right.Quantity {
			return left.Quantity > right.Quantity
		}
		return left.UserID < right.UserID
	})

	// Days whose output beats the per-employee average, not the per-day one.
	for day, quantity := range report.ByDay {
		if float64(quantity) > average {
			report.GeneralStats.HighProductionDays = append(report.GeneralStats.HighProductionDays, ProductionDay{
				Day:      day,
				Quantity: quantity,
			})
		}
	}
	sort.Slice(report.GeneralStats.HighProductionDays, func(i, j int) bool {
		return report.GeneralStats.HighProductionDays[i].Day < report.GeneralStats.HighProductionDays[j].Day
	})

	return report, nil
}
