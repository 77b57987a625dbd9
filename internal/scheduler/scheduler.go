package scheduler

import (
	"context"
	"errors"

	"github.com/redipay/bridge-service/internal/models"
	"github.com/redipay/bridge-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Collector periodically sweeps active plans and collects installments
// that have come due. It is a plain caller of the service: it owns the
// timing and retries simply by trying again on the next tick.
type Collector struct {
	svc   *service.Service
	store service.PlanStore
	log   *logrus.Logger
	cron  *cron.Cron
}

// NewCollector initializes a new collector
func NewCollector(svc *service.Service, store service.PlanStore, log *logrus.Logger) *Collector {
	return &Collector{svc: svc, store: store, log: log}
}

// Start schedules RunOnce on the given cron spec.
func (c *Collector) Start(spec string) error {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(spec, c.RunOnce); err != nil {
		return err
	}
	c.cron.Start()
	c.log.Infof("Collection scheduler started: %s", spec)
	return nil
}

// Stop halts the schedule. Already-running sweeps finish.
func (c *Collector) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// RunOnce walks every owner's plans and collects the next due installment
// of each active plan. The collection runs on behalf of the plan owner.
func (c *Collector) RunOnce() {
	owners, err := c.store.AllOwners()
	if err != nil {
		c.log.Errorf("Sweep failed to list owners: %v", err)
		return
	}

	for _, owner := range owners {
		planIDs, err := c.svc.GetUserPlans(owner)
		if err != nil {
			c.log.Errorf("Sweep failed to list plans for %s: %v", owner, err)
			continue
		}
		for _, planID := range planIDs {
			c.collectNext(owner, planID)
		}
	}
}

func (c *Collector) collectNext(owner, planID string) {
	plan, err := c.svc.GetPlan(planID)
	if err != nil {
		c.log.Errorf("Sweep failed to load plan %s: %v", planID, err)
		return
	}
	if plan.Status != models.PlanActive {
		return
	}

	next, err := c.svc.GetNextDue(planID)
	if err != nil {
		c.log.Errorf("Sweep failed to find next due for %s: %v", planID, err)
		return
	}
	if next == nil {
		return
	}

	ctx := context.WithValue(context.Background(), "userID", owner)
	source, err := c.svc.CollectInstallment(ctx, planID, next.Number)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			c.log.Warnf("Sweep defaulted plan %s at installment %d", planID, next.Number)
		} else {
			c.log.Errorf("Sweep failed to collect %s installment %d: %v", planID, next.Number, err)
		}
		return
	}
	c.log.Infof("Sweep collected %s installment %d from %s", planID, next.Number, source)
}
