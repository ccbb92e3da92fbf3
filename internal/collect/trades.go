package collect

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aptrend/aptrend/internal/period"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/source"
	tradedomain "github.com/aptrend/aptrend/internal/trade/domain"
	"github.com/aptrend/aptrend/pkg/db"
)

// CollectSales ingests filed sales per district and month. Each record is
// resolved through the matcher before persistence; cancellations arriving
// as follow-up records flag the already-stored row.
func (s *service) CollectSales(ctx context.Context, opts Options) *Result {
	return s.sweep(ctx, "sales", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		for _, p := range s.periodsOrCurrent(opts) {
			for pageNo := 1; ; pageNo++ {
				page, err := s.client.FetchSales(ctx, district.DistrictCode(), p, pageNo, budget)
				if errors.Is(err, source.ErrBudgetExhausted) || errors.Is(err, source.ErrMissingAPIKey) {
					return err
				}
				if err != nil {
					// The page is lost after retries; move on to the next month.
					res.addError("sales %s %s page %d: %v", district.Code, p, pageNo, err)
					break
				}

				res.addFetched(len(page.Records))
				batch := make([]*tradedomain.SaleTransaction, 0, len(page.Records))
				var canceled []*tradedomain.SaleTransaction

				for _, record := range page.Records {
					sale, err := s.mapSale(ctx, district, p, record, opts)
					if err != nil {
						res.addError("sales %s %s %q: %v", district.Code, p, record.ApartmentName, err)
						continue
					}
					if sale == nil {
						continue
					}
					batch = append(batch, sale)
					if record.Canceled {
						canceled = append(canceled, sale)
					}

					if len(batch) >= s.batchSize() {
						s.persistSales(ctx, batch, opts.AllowDuplicates, res)
						batch = batch[:0]
					}
				}
				s.persistSales(ctx, batch, opts.AllowDuplicates, res)

				// A cancellation for a row stored by an earlier run arrives as
				// a duplicate; flag it in place.
				for _, sale := range canceled {
					if _, err := s.trades.MarkSaleCanceled(ctx, sale); err != nil {
						res.addError("sales %s %s: mark canceled: %v", district.Code, p, err)
					}
				}

				res.markProgress(district.Code, p.String())
				if !page.HasMore {
					break
				}
			}
		}
		return nil
	})
}

// CollectRents ingests filed leases. Rent records carry no external
// sequence, so resolution relies on the name tiers.
func (s *service) CollectRents(ctx context.Context, opts Options) *Result {
	return s.sweep(ctx, "rents", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		for _, p := range s.periodsOrCurrent(opts) {
			for pageNo := 1; ; pageNo++ {
				page, err := s.client.FetchRents(ctx, district.DistrictCode(), p, pageNo, budget)
				if errors.Is(err, source.ErrBudgetExhausted) || errors.Is(err, source.ErrMissingAPIKey) {
					return err
				}
				if err != nil {
					res.addError("rents %s %s page %d: %v", district.Code, p, pageNo, err)
					break
				}

				res.addFetched(len(page.Records))
				batch := make([]*tradedomain.RentTransaction, 0, len(page.Records))

				for _, record := range page.Records {
					rent, err := s.mapRent(ctx, district, p, record, opts)
					if err != nil {
						res.addError("rents %s %s %q: %v", district.Code, p, record.ApartmentName, err)
						continue
					}
					if rent == nil {
						continue
					}
					batch = append(batch, rent)

					if len(batch) >= s.batchSize() {
						s.persistRents(ctx, batch, opts.AllowDuplicates, res)
						batch = batch[:0]
					}
				}
				s.persistRents(ctx, batch, opts.AllowDuplicates, res)

				res.markProgress(district.Code, p.String())
				if !page.HasMore {
					break
				}
			}
		}
		return nil
	})
}

func (s *service) mapSale(ctx context.Context, district regiondomain.Region, p period.Period, record source.SaleRecord, opts Options) (*tradedomain.SaleTransaction, error) {
	resolution, err := s.matcher.Resolve(ctx, district.DistrictCode(), record.ApartmentName, record.ExternalSeq)
	if err != nil {
		return nil, err
	}
	if opts.ApartmentID != 0 && resolution.ApartmentID != opts.ApartmentID {
		return nil, nil
	}

	return &tradedomain.SaleTransaction{
		ID:          s.genID.Generate(),
		ApartmentID: resolution.ApartmentID,
		RegionID:    district.ID,
		Period:      p.String(),
		DealDate:    record.DealDate,
		DealAmount:  record.DealAmount,
		AreaSqm:     record.AreaSqm,
		Floor:       record.Floor,
		Canceled:    record.Canceled,
		ExternalSeq: record.ExternalSeq,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (s *service) mapRent(ctx context.Context, district regiondomain.Region, p period.Period, record source.RentRecord, opts Options) (*tradedomain.RentTransaction, error) {
	resolution, err := s.matcher.Resolve(ctx, district.DistrictCode(), record.ApartmentName, "")
	if err != nil {
		return nil, err
	}
	if opts.ApartmentID != 0 && resolution.ApartmentID != opts.ApartmentID {
		return nil, nil
	}

	return &tradedomain.RentTransaction{
		ID:           s.genID.Generate(),
		ApartmentID:  resolution.ApartmentID,
		RegionID:     district.ID,
		Period:       p.String(),
		ContractDate: record.ContractDate,
		Deposit:      record.Deposit,
		MonthlyRent:  record.MonthlyRent,
		AreaSqm:      record.AreaSqm,
		Floor:        record.Floor,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// persistSales commits one batch atomically, retries a rolled-back batch
// once, then downgrades to per-record writes so one bad row cannot sink the
// page.
func (s *service) persistSales(ctx context.Context, batch []*tradedomain.SaleTransaction, allowDuplicates bool, res *collector) {
	if len(batch) == 0 {
		return
	}

	commit := func() (int, int, error) {
		var saved, skipped int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.trades.WithTrx(tx)
			for _, sale := range batch {
				inserted, err := repo.InsertSale(ctx, sale, allowDuplicates)
				if err != nil {
					return err
				}
				if inserted {
					saved++
				} else {
					skipped++
				}
			}
			return nil
		})
		return saved, skipped, err
	}

	saved, skipped, err := commit()
	if err != nil {
		s.log.Warn("sale batch rolled back, retrying once", zap.Error(err))
		saved, skipped, err = commit()
	}
	if err == nil {
		res.addSaved(saved)
		res.addSkipped(skipped)
		s.metrics.RecordSaved(ctx, "sales", saved)
		s.metrics.RecordSkipped(ctx, "sales", skipped)
		return
	}

	for _, sale := range batch {
		inserted, err := s.trades.InsertSale(ctx, sale, allowDuplicates)
		if err != nil {
			// A row we already hold is a skip, not a failure.
			if db.IsDuplicateKeyErr(err) {
				res.addSkipped(1)
				s.metrics.RecordSkipped(ctx, "sales", 1)
				continue
			}
			res.addError("sales %s: persist seq %q: %v", sale.Period, sale.ExternalSeq, err)
			s.metrics.RecordError(ctx, "sales")
			continue
		}
		if inserted {
			res.addSaved(1)
		} else {
			res.addSkipped(1)
		}
	}
}

func (s *service) persistRents(ctx context.Context, batch []*tradedomain.RentTransaction, allowDuplicates bool, res *collector) {
	if len(batch) == 0 {
		return
	}

	commit := func() (int, int, error) {
		var saved, skipped int
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.trades.WithTrx(tx)
			for _, rent := range batch {
				inserted, err := repo.InsertRent(ctx, rent, allowDuplicates)
				if err != nil {
					return err
				}
				if inserted {
					saved++
				} else {
					skipped++
				}
			}
			return nil
		})
		return saved, skipped, err
	}

	saved, skipped, err := commit()
	if err != nil {
		s.log.Warn("rent batch rolled back, retrying once", zap.Error(err))
		saved, skipped, err = commit()
	}
	if err == nil {
		res.addSaved(saved)
		res.addSkipped(skipped)
		s.metrics.RecordSaved(ctx, "rents", saved)
		s.metrics.RecordSkipped(ctx, "rents", skipped)
		return
	}

	for _, rent := range batch {
		inserted, err := s.trades.InsertRent(ctx, rent, allowDuplicates)
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				res.addSkipped(1)
				s.metrics.RecordSkipped(ctx, "rents", 1)
				continue
			}
			res.addError("rents %s: persist: %v", rent.Period, err)
			s.metrics.RecordError(ctx, "rents")
			continue
		}
		if inserted {
			res.addSaved(1)
		} else {
			res.addSkipped(1)
		}
	}
}

// periodsOrCurrent falls back to the current month when the caller gave no
// range.
func (s *service) periodsOrCurrent(opts Options) []period.Period {
	if periods := opts.periods(); len(periods) > 0 {
		return periods
	}
	return []period.Period{period.FromTime(time.Now().UTC())}
}
