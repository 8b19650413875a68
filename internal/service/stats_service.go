package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type DashboardStats struct {
	TotalOrders        int             `json:"total_orders"`
	PendingOrders      int             `json:"pending_orders"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalProducts      int             `json:"total_products"`
	OutOfStockProducts int             `json:"out_of_stock_products"`
}

type StatsService struct {
	orders   OrderStore
	products ProductStore
	log      *slog.Logger
}

func NewStatsService(orders OrderStore, products ProductStore, log *slog.Logger) *StatsService {
	return &StatsService{
		orders:   orders,
		products: products,
		log:      log.With("component", "stats"),
	}
}

// Dashboard runs the read-only aggregate queries concurrently. Revenue
// counts only Shipped and Delivered orders.
func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.orders.CountOrders(ctx)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.orders.CountOrdersByStatus(ctx, domain.OrderStatusPending)
		stats.PendingOrders = n
		return err
	})
	g.Go(func() error {
		total, err := s.orders.Revenue(ctx, domain.OrderStatusShipped, domain.OrderStatusDelivered)
		stats.TotalRevenue = total
		return err
	})
	g.Go(func() error {
		n, err := s.products.CountProducts(ctx)
		stats.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := s.products.CountOutOfStock(ctx)
		stats.OutOfStockProducts = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("dashboard stats failed", "err", err)
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
