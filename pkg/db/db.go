package db

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

type DB struct {
	DB *gorm.DB

	// BatchSize is used for how many insertions we should do at once.
	BatchSize int
}

func New(dsn string, logLevel logger.LogLevel) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return &DB{
		DB:        db,
		BatchSize: 1024,
	}, nil
}

// UpdateSchema migrates the schema to the latest version and then runs any
// named data migrations that have not run yet.
func (d *DB) UpdateSchema() error {
	for _, model := range []interface{}{
		&models.User{},
		&models.Session{},
		&models.Message{},
		&models.Memory{},
		&models.Person{},
		&models.Chapter{},
		&models.MemoryPerson{},
		&models.MemoryChapter{},
		&models.QuestionQueue{},
		&models.PromptRun{},
	} {
		if err := d.DB.AutoMigrate(model); err != nil {
			return err
		}
	}

	for name, migration := range migrations {
		log.Infof("running migration %q", name)
		if err := migration(d.DB); err != nil {
			return err
		}
	}

	return nil
}
