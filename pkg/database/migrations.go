package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logf       func(format string, args ...interface{})
}

func NewMigrator(db *mongo.Database, logf func(format string, args ...interface{})) *Migrator {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logf:       logf,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logf("Running migration %d: %s", migration.Version, migration.Description)
		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logf("Reverting migration %d: %s", migration.Version, migration.Description)
		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		indexMigration(1, "Create referral_codes indexes", "referral_codes", []mongo.IndexModel{
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "owner.type", Value: 1}, {Key: "owner.id", Value: 1}}},
		}),
		indexMigration(2, "Create partners indexes", "partners", []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}),
		indexMigration(3, "Create influencers indexes", "influencers", []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "handle", Value: 1}}},
		}),
		indexMigration(4, "Create customers indexes", "customers", []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "referrer.id", Value: 1}}},
			{Keys: bson.D{{Key: "referral_type", Value: 1}}},
		}),
		indexMigration(5, "Create orders indexes", "orders", []mongo.IndexModel{
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		}),
		indexMigration(6, "Create commissions indexes", "commissions", []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "order_id", Value: 1},
					{Key: "recipient.id", Value: 1},
					{Key: "level", Value: 1},
					{Key: "kind", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "recipient.id", Value: 1}, {Key: "is_paid", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}),
		indexMigration(7, "Create customer_credits indexes", "customer_credits", []mongo.IndexModel{
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		}),
		indexMigration(8, "Create credit_transactions indexes", "credit_transactions", []mongo.IndexModel{
			{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "type", Value: 1}}},
		}),
		indexMigration(9, "Create referrals indexes", "referrals", []mongo.IndexModel{
			{Keys: bson.D{{Key: "referrer.id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "referee_customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		}),
		indexMigration(10, "Create payouts indexes", "payouts", []mongo.IndexModel{
			{Keys: bson.D{{Key: "recipient.id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "recipient.id", Value: 1}, {Key: "status", Value: 1}}},
		}),
	}
}

func indexMigration(version int, description, collection string, indexes []mongo.IndexModel) Migration {
	return Migration{
		Version:     version,
		Description: description,
		Up: func(ctx context.Context, db *mongo.Database) error {
			_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
			return err
		},
		Down: func(ctx context.Context, db *mongo.Database) error {
			_, err := db.Collection(collection).Indexes().DropAll(ctx)
			return err
		},
	}
}
