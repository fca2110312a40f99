package locations

import (
	"context"
	"errors"
	"strings"
	"time"

	"homestay/internal/domain/shared/events"
)

var (
	ErrLocationNotFound   = errors.New("locations: not found")
	ErrLocationIDRequired = errors.New("locations: id is required")
	ErrHostRequired       = errors.New("locations: host is required")
	ErrNameRequired       = errors.New("locations: name is required")
	ErrAddressRequired    = errors.New("locations: address is required")
	ErrCityRequired       = errors.New("locations: city is required")
	ErrProvinceRequired   = errors.New("locations: province is required")
	ErrForeignLocation    = errors.New("locations: location belongs to another host")
	ErrLocationInUse      = errors.New("locations: location still has rooms")
)

type LocationID string

// Location is a host-owned property address that rooms are grouped under.
type Location struct {
	ID          LocationID
	Host        string
	Name        string
	Address     string
	City        string
	Province    string
	Description string
	ImageURL    string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id LocationID) (*Location, error)
	ListByHost(ctx context.Context, host string) ([]*Location, error)
	Save(ctx context.Context, location *Location) error
	Delete(ctx context.Context, id LocationID) error
}

// Details are the host-editable fields of a location.
type Details struct {
	Name        string
	Address     string
	City        string
	Province    string
	Description string
	ImageURL    string
}

func (d Details) normalized() (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.Province = strings.TrimSpace(d.Province)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	switch {
	case d.Name == "":
		return Details{}, ErrNameRequired
	case d.Address == "":
		return Details{}, ErrAddressRequired
	case d.City == "":
		return Details{}, ErrCityRequired
	case d.Province == "":
		return Details{}, ErrProvinceRequired
	}
	return d, nil
}

type CreateParams struct {
	ID      LocationID
	Host    string
	Details Details
	Now     time.Time
}

func NewLocation(params CreateParams) (*Location, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrLocationIDRequired
	}
	if strings.TrimSpace(params.Host) == "" {
		return nil, ErrHostRequired
	}
	details, err := params.Details.normalized()
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Location{
		ID:        params.ID,
		Host:      params.Host,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.apply(details)
	l.Record(LocationCreated{LocationID: l.ID, Host: l.Host, Name: l.Name, At: now})
	return l, nil
}

func (l *Location) Update(details Details, now time.Time) error {
	normalized, err := details.normalized()
	if err != nil {
		return err
	}
	l.apply(normalized)
	l.UpdatedAt = now.UTC()
	l.Record(LocationUpdated{LocationID: l.ID, Name: l.Name, At: l.UpdatedAt})
	return nil
}

// MarkDeleted records the removal; the caller deletes it from the repository.
func (l *Location) MarkDeleted(now time.Time) {
	l.Record(LocationDeleted{LocationID: l.ID, Host: l.Host, At: now.UTC()})
}

func (l *Location) OwnedBy(host string) error {
	if l.Host != host {
		return ErrForeignLocation
	}
	return nil
}

func (l *Location) apply(d Details) {
	l.Name = d.Name
	l.Address = d.Address
	l.City = d.City
	l.Province = d.Province
	l.Description = d.Description
	l.ImageURL = d.ImageURL
}
