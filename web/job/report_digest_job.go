package job

import (
	"context"
	"fmt"
	"time"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/web/service"
)

type reportLister interface {
	ListAll(ctx context.Context, actor service.Actor) ([]*service.ReportSummary, error)
}

// ReportDigestJob posts the number of new and unanswered reports to the
// administrator alert channel.
type ReportDigestJob struct {
	reports reportLister
	alerter service.Alerter
	window  time.Duration
	now     func() time.Time
}

func NewReportDigestJob(reports reportLister, alerter service.Alerter) *ReportDigestJob {
	return &ReportDigestJob{
		reports: reports,
		alerter: alerter,
		window:  24 * time.Hour,
		now:     time.Now,
	}
}

// Here Run is an interface method of the Job interface
func (j *ReportDigestJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	all, err := j.reports.ListAll(ctx, service.AdminActor())
	if err != nil {
		logger.Warning("report digest job err:", err)
		return
	}

	since := j.now().Add(-j.window)
	var recent, pending int
	for _, r := range all {
		if r.CreatedAt.After(since) {
			recent++
		}
		if !r.HasResponse {
			pending++
		}
	}
	if recent == 0 && pending == 0 {
		return
	}

	text := fmt.Sprintf("📊 %s\n\nNovas nas últimas 24h: %d\nSem resposta: %d\nTotal: %d",
		config.GetName(), recent, pending, len(all))
	if err := j.alerter.Alert(ctx, text); err != nil {
		logger.Warning("report digest job err:", err)
	}
}
