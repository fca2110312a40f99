package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	Rooms     *RoomRepository
	Coupons   *CouponRepository
	Bookings  *BookingRepository
	Locations *LocationRepository
	Settings  *SettingsRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds the repositories and makes sure their indexes exist.
func NewFactory(ctx context.Context, db *mongo.Database) (Factory, error) {
	coupons := NewCouponRepository(db)
	if err := coupons.EnsureIndexes(ctx); err != nil {
		return Factory{}, err
	}
	bookings := NewBookingRepository(db)
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return Factory{}, err
	}
	locations := NewLocationRepository(db)
	if err := locations.EnsureIndexes(ctx); err != nil {
		return Factory{}, err
	}
	return Factory{
		DB:        db,
		Rooms:     NewRoomRepository(db),
		Coupons:   coupons,
		Bookings:  bookings,
		Locations: locations,
		Settings:  NewSettingsRepository(db),
	}, nil
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:   session,
		rooms:     f.Rooms,
		coupons:   f.Coupons,
		bookings:  f.Bookings,
		locations: f.Locations,
		settings:  f.Settings,
	}, nil
}

type Unit struct {
	session mongo.Session

	rooms     *RoomRepository
	coupons   *CouponRepository
	bookings  *BookingRepository
	locations *LocationRepository
	settings  *SettingsRepository
}

func (u *Unit) Rooms() domainrooms.Repository {
	return u.rooms
}

func (u *Unit) Coupons() domaincoupons.Repository {
	return u.coupons
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Locations() domainlocations.Repository {
	return u.locations
}

func (u *Unit) HostSettings() hostsettings.Repository {
	return u.settings
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func isWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.Code == 112
	}
	var le mongo.LabeledError
	if errors.As(err, &le) {
		return le.HasErrorLabel("TransientTransactionError")
	}
	return false
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
