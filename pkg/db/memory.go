package db

import (
	"context"
	"sort"
	"sync"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// MemStore is an in-memory Database used by tests and local development.
// All methods are safe for concurrent use; returned values are copies.
type MemStore struct {
	mu            sync.RWMutex
	donors        map[string]model.Donor
	appointments  map[string]model.Appointment
	camps         map[string]model.Camp
	registrations map[string]model.Registration
	units         map[string]model.BloodUnit
	requests      map[string]model.EmergencyRequest
}

var _ Database = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		donors:        make(map[string]model.Donor),
		appointments:  make(map[string]model.Appointment),
		camps:         make(map[string]model.Camp),
		registrations: make(map[string]model.Registration),
		units:         make(map[string]model.BloodUnit),
		requests:      make(map[string]model.EmergencyRequest),
	}
}

// GetDonor retrieves a donor by ID
func (s *MemStore) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donors[id]
	if !ok {
		return nil, &model.ErrNotFound{Entity: "donor", ID: id}
	}
	return &d, nil
}

// InsertDonor stores a new donor record
func (s *MemStore) InsertDonor(ctx context.Context, donor *model.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors[donor.ID] = *donor
	return nil
}

// UpdateDonor replaces an existing donor record
func (s *MemStore) UpdateDonor(ctx context.Context, donor *model.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donors[donor.ID]; !ok {
		return &model.ErrNotFound{Entity: "donor", ID: donor.ID}
	}
	s.donors[donor.ID] = *donor
	return nil
}

// GetAppointment retrieves an appointment by ID
func (s *MemStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, &model.ErrNotFound{Entity: "appointment", ID: id}
	}
	return &a, nil
}

// ListAppointments returns appointments matching the filter, oldest first
func (s *MemStore) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if filter.DonorID != "" && a.DonorID != filter.DonorID {
			continue
		}
		if filter.CenterID != "" && a.CenterID != filter.CenterID {
			continue
		}
		if filter.Date != nil {
			y1, m1, d1 := a.ScheduledAt.Date()
			y2, m2, d2 := filter.Date.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.ActiveOnly && !a.Active() {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// InsertAppointment stores a new appointment record
func (s *MemStore) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appt.ID] = *appt
	return nil
}

// UpdateAppointment replaces an existing appointment record
func (s *MemStore) UpdateAppointment(ctx context.Context, appt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appt.ID]; !ok {
		return &model.ErrNotFound{Entity: "appointment", ID: appt.ID}
	}
	s.appointments[appt.ID] = *appt
	return nil
}

// GetCamp retrieves a camp by ID
func (s *MemStore) GetCamp(ctx context.Context, id string) (*model.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.camps[id]
	if !ok {
		return nil, &model.ErrNotFound{Entity: "camp", ID: id}
	}
	return &c, nil
}

// ListCamps returns all camps ordered by date
func (s *MemStore) ListCamps(ctx context.Context) ([]model.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Camp, 0, len(s.camps))
	for _, c := range s.camps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// InsertCamp stores a new camp record
func (s *MemStore) InsertCamp(ctx context.Context, camp *model.Camp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camps[camp.ID] = *camp
	return nil
}

// DeleteCamp removes a camp and its registrations
func (s *MemStore) DeleteCamp(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.camps[id]; !ok {
		return &model.ErrNotFound{Entity: "camp", ID: id}
	}
	delete(s.camps, id)
	for rid, r := range s.registrations {
		if r.CampID == id {
			delete(s.registrations, rid)
		}
	}
	return nil
}

// GetRegistration retrieves the registration for a (camp, donor) pair
func (s *MemStore) GetRegistration(ctx context.Context, campID, donorID string) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.registrations {
		if r.CampID == campID && r.DonorID == donorID {
			reg := r
			return &reg, nil
		}
	}
	return nil, &model.ErrNotFound{Entity: "registration", ID: campID + "/" + donorID}
}

// ListRegistrations returns all registrations for a camp in creation order
func (s *MemStore) ListRegistrations(ctx context.Context, campID string) ([]model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Registration
	for _, r := range s.registrations {
		if r.CampID == campID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// InsertRegistration stores a new registration record
func (s *MemStore) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[reg.ID] = *reg
	return nil
}

// UpdateRegistration replaces an existing registration record
func (s *MemStore) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[reg.ID]; !ok {
		return &model.ErrNotFound{Entity: "registration", ID: reg.ID}
	}
	s.registrations[reg.ID] = *reg
	return nil
}

// GetUnit retrieves a blood unit by ID
func (s *MemStore) GetUnit(ctx context.Context, id string) (*model.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return nil, &model.ErrNotFound{Entity: "blood unit", ID: id}
	}
	return &u, nil
}

// GetUnitByAppointment retrieves the unit collected at an appointment, if any
func (s *MemStore) GetUnitByAppointment(ctx context.Context, appointmentID string) (*model.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.SourceAppointmentID == appointmentID {
			unit := u
			return &unit, nil
		}
	}
	return nil, &model.ErrNotFound{Entity: "blood unit", ID: "appointment " + appointmentID}
}

// ListUnits returns units matching the filter, ordered by expiry then ID for
// deterministic oldest-expiry-first consumption
func (s *MemStore) ListUnits(ctx context.Context, filter UnitFilter) ([]model.BloodUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.BloodUnit
	for _, u := range s.units {
		if filter.BloodType != "" && u.BloodType != filter.BloodType {
			continue
		}
		if filter.TestStatus != "" && u.TestStatus != filter.TestStatus {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// InsertUnit stores a new blood unit record
func (s *MemStore) InsertUnit(ctx context.Context, unit *model.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[unit.ID] = *unit
	return nil
}

// UpdateUnit replaces an existing blood unit record
func (s *MemStore) UpdateUnit(ctx context.Context, unit *model.BloodUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[unit.ID]; !ok {
		return &model.ErrNotFound{Entity: "blood unit", ID: unit.ID}
	}
	s.units[unit.ID] = *unit
	return nil
}

// GetRequest retrieves an emergency request by ID
func (s *MemStore) GetRequest(ctx context.Context, id string) (*model.EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, &model.ErrNotFound{Entity: "emergency request", ID: id}
	}
	return &r, nil
}

// ListRequests returns all emergency requests, newest first
func (s *MemStore) ListRequests(ctx context.Context) ([]model.EmergencyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EmergencyRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// InsertRequest stores a new emergency request record
func (s *MemStore) InsertRequest(ctx context.Context, req *model.EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = *req
	return nil
}

// UpdateRequest replaces an existing emergency request record
func (s *MemStore) UpdateRequest(ctx context.Context, req *model.EmergencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return &model.ErrNotFound{Entity: "emergency request", ID: req.ID}
	}
	s.requests[req.ID] = *req
	return nil
}
