package collect

import (
	"context"
	"errors"
	"time"

	aptdomain "github.com/aptrend/aptrend/internal/apartment/domain"
	regiondomain "github.com/aptrend/aptrend/internal/region/domain"
	"github.com/aptrend/aptrend/internal/source"
)

// CollectApartments ingests the complex master list per district. Rows
// carry an external master code, so persistence is an upsert on
// (region, external code).
func (s *service) CollectApartments(ctx context.Context, opts Options) *Result {
	return s.sweep(ctx, "apartments", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		touched := false
		defer func() {
			if touched {
				// New rows change the match candidate set for the district.
				s.candidates.Invalidate(district.Code)
			}
		}()

		for pageNo := 1; ; pageNo++ {
			page, err := s.client.FetchApartments(ctx, district.DistrictCode(), pageNo, budget)
			if err != nil {
				return err
			}

			res.addFetched(len(page.Records))
			for _, record := range page.Records {
				if record.Name == "" {
					res.addError("apartments %s: row with empty name skipped", district.Code)
					continue
				}

				region, err := s.regions.ResolveCode(ctx, record.RegionCode)
				if errors.Is(err, regiondomain.ErrRegionNotFound) || errors.Is(err, regiondomain.ErrInvalidCode) {
					// A neighborhood we do not track rolls up to its district.
					region = &district
				} else if err != nil {
					res.addError("apartments %s %q: %v", district.Code, record.Name, err)
					continue
				}

				now := time.Now().UTC()
				apartment := &aptdomain.Apartment{
					ID:        s.genID.Generate(),
					RegionID:  region.ID,
					Name:      record.Name,
					Available: true,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if record.ExternalCode != "" {
					code := record.ExternalCode
					apartment.ExternalCode = &code
				}

				inserted, err := s.apartments.UpsertByExternalCode(ctx, apartment)
				if err != nil {
					res.addError("apartments %s %q: %v", district.Code, record.Name, err)
					continue
				}
				if inserted {
					res.addSaved(1)
					touched = true
				} else {
					res.addSkipped(1)
				}
			}

			res.markProgress(district.Code, "")
			if !page.HasMore {
				return nil
			}
		}
	})
}

// CollectApartmentDetails fetches per-complex attributes for every known
// apartment that carries an external code. Detail rows are refreshed in
// place.
func (s *service) CollectApartmentDetails(ctx context.Context, opts Options) *Result {
	return s.sweep(ctx, "apartment_details", opts, func(ctx context.Context, district regiondomain.Region, budget *source.Budget, res *collector) error {
		apartments, err := s.apartments.ListByRegion(ctx, district.ID)
		if err != nil {
			return err
		}

		for _, apartment := range apartments {
			if opts.ApartmentID != 0 && apartment.ID != opts.ApartmentID {
				continue
			}
			if apartment.ExternalCode == nil || *apartment.ExternalCode == "" {
				continue
			}

			record, err := s.client.FetchApartmentDetail(ctx, *apartment.ExternalCode, budget)
			if errors.Is(err, source.ErrBudgetExhausted) || errors.Is(err, source.ErrMissingAPIKey) {
				return err
			}
			if err != nil {
				res.addError("apartment_details %s %q: %v", district.Code, apartment.Name, err)
				continue
			}
			res.addFetched(1)

			detail := &aptdomain.Detail{
				ID:             s.genID.Generate(),
				ApartmentID:    apartment.ID,
				HouseholdCount: record.HouseholdCount,
				BuildYear:      record.BuildYear,
				HeatingType:    record.HeatingType,
				HallwayType:    record.HallwayType,
			}
			if err := s.apartments.UpsertDetail(ctx, detail); err != nil {
				res.addError("apartment_details %s %q: %v", district.Code, apartment.Name, err)
				continue
			}
			res.addSaved(1)
		}

		res.markProgress(district.Code, "")
		return nil
	})
}
