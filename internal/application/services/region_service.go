package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/domain/repositories"
	"github.com/redhope/backend/internal/infrastructure/observability"
	apperrors "github.com/redhope/backend/pkg/errors"
	"github.com/redhope/backend/pkg/wilaya"
)

var postalPrefix = regexp.MustCompile(`^\d{2}`)

// PostalCodeResolver maps the first two digits of an Algerian postal code to
// a wilaya code. The prefix rule is a heuristic: it holds for the current
// postal plan but is not backed by an authoritative table.
type PostalCodeResolver struct{}

// ResolveRegion implements providers.RegionResolver
func (PostalCodeResolver) ResolveRegion(addr *providers.GeocodedAddress) (string, entities.CityIDMethod, bool) {
	if addr == nil {
		return "", entities.CityIDUnresolved, false
	}
	if cc := strings.ToLower(addr.Components["country_code"]); cc != "" && cc != "dz" {
		return "", entities.CityIDUnresolved, false
	}
	prefix := postalPrefix.FindString(strings.TrimSpace(addr.PostalCode))
	if prefix == "" {
		return "", entities.CityIDUnresolved, false
	}
	code, ok := wilaya.NormalizeCode(prefix)
	if !ok {
		return "", entities.CityIDUnresolved, false
	}
	return code, entities.CityIDFromPostalCode, true
}

// NameMatchResolver matches state, county and city names against the wilaya table.
type NameMatchResolver struct{}

// ResolveRegion implements providers.RegionResolver
func (NameMatchResolver) ResolveRegion(addr *providers.GeocodedAddress) (string, entities.CityIDMethod, bool) {
	if addr == nil {
		return "", entities.CityIDUnresolved, false
	}
	for _, name := range []string{addr.State, addr.County, addr.City} {
		if w, ok := wilaya.MatchName(name); ok {
			return w.Code, entities.CityIDFromStateName, true
		}
	}
	return "", entities.CityIDUnresolved, false
}

// ChainResolver asks each resolver in order and keeps the first answer.
type ChainResolver []providers.RegionResolver

// ResolveRegion implements providers.RegionResolver
func (c ChainResolver) ResolveRegion(addr *providers.GeocodedAddress) (string, entities.CityIDMethod, bool) {
	for _, r := range c {
		if code, method, ok := r.ResolveRegion(addr); ok {
			return code, method, true
		}
	}
	return "", entities.CityIDUnresolved, false
}

// NewDefaultRegionResolver tries the postal code first, then names.
func NewDefaultRegionResolver() providers.RegionResolver {
	return ChainResolver{PostalCodeResolver{}, NameMatchResolver{}}
}

// RegionService translates wilaya codes to names. Names read from the
// database are cached and take precedence over the static table.
type RegionService struct {
	repo repositories.WilayaRepository

	mu    sync.RWMutex
	names map[string]string
}

// NewRegionService creates a new region service. repo may be nil.
func NewRegionService(repo repositories.WilayaRepository) *RegionService {
	return &RegionService{
		repo:  repo,
		names: make(map[string]string),
	}
}

// GetCityNameFromCode returns the display name for cityID. It never fails:
// unknown codes yield "Wilaya {code}".
func (s *RegionService) GetCityNameFromCode(ctx context.Context, cityID string) string {
	code, ok := wilaya.NormalizeCode(cityID)
	if !ok {
		return fallbackName(cityID)
	}
	if name, hit := s.cachedName(code); hit {
		return name
	}

	if s.repo != nil {
		w, err := s.repo.GetByCode(ctx, code)
		if err == nil && w != nil && w.Name != "" {
			s.remember(code, w.Name)
			return w.Name
		}
		if err != nil && !apperrors.IsNotFound(err) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("city_id", code).Msg("wilaya lookup failed, using static table")
		}
	}

	return s.GetCityNameSync(code)
}

// GetCityNameSync consults only the cache and the static table.
func (s *RegionService) GetCityNameSync(cityID string) string {
	code, ok := wilaya.NormalizeCode(cityID)
	if !ok {
		return fallbackName(cityID)
	}
	if name, hit := s.cachedName(code); hit {
		return name
	}
	if w, ok := wilaya.ByCode(code); ok {
		return w.Name
	}
	return fallbackName(code)
}

// ListWilayas returns the database table, or the static one when the
// database is unreachable or empty.
func (s *RegionService) ListWilayas(ctx context.Context) ([]*entities.Wilaya, error) {
	if s.repo != nil {
		list, err := s.repo.List(ctx)
		if err == nil && len(list) > 0 {
			for _, w := range list {
				s.remember(w.Code, w.Name)
			}
			return list, nil
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("listing wilayas failed, using static table")
		}
	}
	return staticWilayas(), nil
}

// GetWilayaByCode looks a wilaya up by any accepted code form.
func (s *RegionService) GetWilayaByCode(ctx context.Context, raw string) (*entities.Wilaya, error) {
	code, ok := wilaya.NormalizeCode(raw)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid wilaya code %q", raw))
	}
	if s.repo != nil {
		w, err := s.repo.GetByCode(ctx, code)
		if err == nil {
			s.remember(w.Code, w.Name)
			return w, nil
		}
		if !apperrors.IsNotFound(err) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("city_id", code).Msg("wilaya lookup failed, using static table")
		}
	}
	w, _ := wilaya.ByCode(code)
	return staticWilaya(w), nil
}

// GetWilayaByID looks a wilaya up by database id. Static entries use their
// code as id.
func (s *RegionService) GetWilayaByID(ctx context.Context, id string) (*entities.Wilaya, error) {
	if s.repo != nil {
		w, err := s.repo.GetByID(ctx, id)
		if err == nil {
			return w, nil
		}
		if apperrors.IsNotFound(err) {
			if _, isCode := wilaya.NormalizeCode(id); !isCode {
				return nil, err
			}
		} else {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("wilaya_id", id).Msg("wilaya lookup failed, using static table")
		}
	}
	if w, ok := wilaya.ByCode(id); ok {
		return staticWilaya(w), nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("wilaya %s not found", id))
}

func (s *RegionService) cachedName(code string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[code]
	return name, ok
}

func (s *RegionService) remember(code, name string) {
	if code == "" || name == "" {
		return
	}
	s.mu.Lock()
	s.names[code] = name
	s.mu.Unlock()
}

func fallbackName(code string) string {
	return "Wilaya " + strings.TrimSpace(code)
}

func staticWilaya(w wilaya.Wilaya) *entities.Wilaya {
	return &entities.Wilaya{ID: w.Code, Code: w.Code, Name: w.Name, NameAr: w.NameAr}
}

func staticWilayas() []*entities.Wilaya {
	all := wilaya.All()
	out := make([]*entities.Wilaya, len(all))
	for i, w := range all {
		out[i] = staticWilaya(w)
	}
	return out
}
