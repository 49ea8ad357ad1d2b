package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GormStore is the database-backed Store, with dual SQLite/Postgres
// driver selection based on the DSN scheme.
type GormStore struct {
	db *gorm.DB
}

// Open dials either sqlite or postgres depending on dsn's scheme, matching
// the DatabaseConfig driver switch, and auto-migrates the schema.
func Open(dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch {
	case len(dsn) >= 11 && dsn[:11] == "postgres://":
		dialector = postgres.Open(dsn)
	case len(dsn) >= 14 && dsn[:14] == "postgresql://":
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &List{}, &ListItem{}, &Event{}, &ReminderHistoryEntry{}); err != nil {
		return nil, fmt.Errorf("migrate user store: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) UpsertUser(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *GormStore) getOrCreateList(ctx context.Context, channel, chatID, name string) (List, error) {
	var l List
	err := s.db.WithContext(ctx).Where("channel = ? AND chat_id = ? AND name = ?", channel, chatID, name).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l = List{Channel: channel, ChatID: chatID, Name: name}
		if err := s.db.WithContext(ctx).Create(&l).Error; err != nil {
			return List{}, err
		}
		return l, nil
	}
	return l, err
}

func (s *GormStore) AddListItem(ctx context.Context, channel, chatID, listName, text string) (ListItem, error) {
	var item ListItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.getOrCreateList(ctx, channel, chatID, listName)
		if err != nil {
			return err
		}
		item = ListItem{ListID: l.ID, Text: text}
		return tx.Create(&item).Error
	})
	return item, err
}

func (s *GormStore) GetList(ctx context.Context, channel, chatID, listName string) (List, error) {
	var l List
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("channel = ? AND chat_id = ? AND name = ?", channel, chatID, listName).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return List{Channel: channel, ChatID: chatID, Name: listName}, nil
	}
	return l, err
}

func (s *GormStore) ListLists(ctx context.Context, channel, chatID string) ([]List, error) {
	var ls []List
	err := s.db.WithContext(ctx).Preload("Items").Where("channel = ? AND chat_id = ?", channel, chatID).Find(&ls).Error
	return ls, err
}

func (s *GormStore) MarkItemDone(ctx context.Context, channel, chatID, listName string, itemID uint) error {
	l, err := s.GetList(ctx, channel, chatID, listName)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&ListItem{}).
		Where("id = ? AND list_id = ?", itemID, l.ID).
		Update("done", true).Error
}

func (s *GormStore) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	err := s.db.WithContext(ctx).Create(&ev).Error
	return ev, err
}

func (s *GormStore) ListEvents(ctx context.Context, channel, chatID string) ([]Event, error) {
	var evs []Event
	err := s.db.WithContext(ctx).Where("channel = ? AND chat_id = ?", channel, chatID).Order("start_at_ms asc").Find(&evs).Error
	return evs, err
}

// appendHistoryLimit caps per-kind history rows per user
const appendHistoryLimit = 20

func (s *GormStore) AppendReminderHistory(ctx context.Context, userID string, kind ReminderHistoryKind, message string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ReminderHistoryEntry{UserID: userID, Kind: kind, Message: message}).Error; err != nil {
			return err
		}
		var entries []ReminderHistoryEntry
		if err := tx.Where("user_id = ? AND kind = ?", userID, kind).
			Order("created_at desc").Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) <= appendHistoryLimit {
			return nil
		}
		var stale []uint
		for _, e := range entries[appendHistoryLimit:] {
			stale = append(stale, e.ID)
		}
		return tx.Delete(&ReminderHistoryEntry{}, stale).Error
	})
}

func (s *GormStore) GetReminderHistory(ctx context.Context, userID string, kind ReminderHistoryKind) ([]ReminderHistoryEntry, error) {
	var entries []ReminderHistoryEntry
	err := s.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at desc").Limit(appendHistoryLimit).Find(&entries).Error
	return entries, err
}
