package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedPrograms  = []string{"Systems Engineering", "Industrial Design", "Mechatronics", "Business", "Electronics"}
	seedInterests = []string{"music", "running", "chess", "cinema", "coffee", "hiking", "gaming", "photography"}
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears messages, comments, likes, posts, matches and users.
//  2. Creates `count` users on the institutional domain, password "password".
//  3. Adds pending and matched edges (one row per pair), a message on each
//     match and one public post per user.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, domain string, count int) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "comments", "post_likes", "posts", "matches", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('matches', 'users', 'messages', 'posts', 'comments')")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Users ---
	users := make([]User, 0, count)
	for i := 1; i <= count; i++ {
		r.Shuffle(len(seedInterests), func(a, b int) {
			seedInterests[a], seedInterests[b] = seedInterests[b], seedInterests[a]
		})
		users = append(users, User{
			Name:         fmt.Sprintf("Student %d", i),
			Email:        fmt.Sprintf("user%d@%s", i, domain),
			PasswordHash: string(hash),
			Program:      seedPrograms[i%len(seedPrograms)],
			Term:         r.Intn(10) + 1,
			Interests:    append([]string(nil), seedInterests[:3]...),
			Bio:          "Seeded profile",
			Verified:     true,
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("Seeded %d users.", len(users))

	// --- Matches ---
	created := 0
	for i := range users {
		for j := 0; j < 3; j++ {
			other := users[r.Intn(len(users))]
			if other.ID == users[i].ID {
				continue
			}

			m := Match{InitiatorID: users[i].ID, ReceiverID: other.ID, Status: MatchPending}
			if created%3 == 0 {
				now := time.Now().UTC()
				m.Status = MatchMatched
				m.MatchedAt = &now
			}

			// pair already taken in either direction → skip
			res := db.Omit(clause.Associations).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&m)
			if res.Error != nil {
				return fmt.Errorf("failed to seed match: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			created++

			if m.Status == MatchMatched {
				msg := Message{MatchID: m.ID, SenderID: m.InitiatorID, Content: "Hi! 👋", Type: MessageText}
				if err := db.Omit(clause.Associations).Create(&msg).Error; err != nil {
					return fmt.Errorf("failed to seed message: %w", err)
				}
			}
		}
	}
	log.Printf("Seeded %d matches.", created)

	// --- Posts ---
	for _, u := range users {
		p := Post{UserID: u.ID, Content: "Hello from " + u.Program, PostType: PostText, Privacy: PrivacyPublic}
		if err := db.Omit(clause.Associations).Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed post: %w", err)
		}
	}

	return nil
}
