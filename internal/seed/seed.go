// Package seed loads the mock collections the store starts with.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"connecthub/internal/model"
)

//go:embed default.yaml
var defaultSeed []byte

// Data is the initial content of the social-graph store.
type Data struct {
	Users         []model.User
	Posts         []model.Post
	Comments      []model.Comment
	Notifications []model.Notification
}

// document mirrors the YAML layout. Timestamps are given as an age relative to load time.
type document struct {
	Users []model.User `yaml:"users"`
	Posts []struct {
		model.Post `yaml:",inline"`
		Age        string `yaml:"age"`
	} `yaml:"posts"`
	Comments []struct {
		model.Comment `yaml:",inline"`
		Age           string `yaml:"age"`
	} `yaml:"comments"`
	Notifications []struct {
		model.Notification `yaml:",inline"`
		Age                string `yaml:"age"`
	} `yaml:"notifications"`
}

// Default returns the embedded seed relative to now.
func Default(now time.Time) (*Data, error) {
	return Parse(defaultSeed, now)
}

// Load reads a seed file, falling back to the embedded seed when path is empty.
func Load(path string, now time.Time) (*Data, error) {
	if path == "" {
		return Default(now)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw, now)
}

// Parse decodes and validates a seed document.
func Parse(raw []byte, now time.Time) (*Data, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	data := &Data{Users: make([]model.User, 0, len(doc.Users))}
	for _, u := range doc.Users {
		data.Users = append(data.Users, u.Clone())
	}

	for _, p := range doc.Posts {
		at, err := stamp(now, p.Age)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", p.ID, err)
		}
		post := p.Post.Clone()
		post.CreatedAt = at
		data.Posts = append(data.Posts, post)
	}

	for _, c := range doc.Comments {
		at, err := stamp(now, c.Age)
		if err != nil {
			return nil, fmt.Errorf("comment %s: %w", c.ID, err)
		}
		comment := c.Comment
		comment.CreatedAt = at
		data.Comments = append(data.Comments, comment)
	}

	for _, n := range doc.Notifications {
		at, err := stamp(now, n.Age)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", n.ID, err)
		}
		notif := n.Notification
		notif.CreatedAt = at
		data.Notifications = append(data.Notifications, notif)
	}

	if repaired := data.reconcileFollows(); repaired > 0 {
		log.Warn().Str("component", "seed").Int("edges", repaired).Msg("Repaired one-sided follow edges in seed")
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// reconcileFollows writes every follow edge listed on only one side onto the other side
// and returns how many edges it completed. Unknown ids are left for Validate.
func (d *Data) reconcileFollows() int {
	index := make(map[string]int, len(d.Users))
	for i, u := range d.Users {
		index[u.ID] = i
	}

	repaired := 0
	for i := range d.Users {
		for _, id := range d.Users[i].Following {
			j, ok := index[id]
			if ok && !slices.Contains(d.Users[j].Followers, d.Users[i].ID) {
				d.Users[j].Followers = append(d.Users[j].Followers, d.Users[i].ID)
				repaired++
			}
		}
		for _, id := range d.Users[i].Followers {
			j, ok := index[id]
			if ok && !slices.Contains(d.Users[j].Following, d.Users[i].ID) {
				d.Users[j].Following = append(d.Users[j].Following, d.Users[i].ID)
				repaired++
			}
		}
	}
	return repaired
}

func stamp(now time.Time, age string) (time.Time, error) {
	if age == "" {
		return now, nil
	}
	d, err := time.ParseDuration(age)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid age %q: %w", age, err)
	}
	return now.Add(-d), nil
}

// Validate checks ids are unique and every reference resolves.
func (d *Data) Validate() error {
	users := make(map[string]model.User, len(d.Users))
	emails := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.ID == "" {
			return fmt.Errorf("seed user without id")
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("duplicate user id %s", u.ID)
		}
		if emails[u.Email] {
			return fmt.Errorf("duplicate email %s", u.Email)
		}
		users[u.ID] = u
		emails[u.Email] = true
	}

	for _, u := range d.Users {
		for _, id := range u.Following {
			target, ok := users[id]
			if !ok {
				return fmt.Errorf("user %s follows unknown user %s", u.ID, id)
			}
			if id == u.ID {
				return fmt.Errorf("user %s follows itself", u.ID)
			}
			if !slices.Contains(target.Followers, u.ID) {
				return fmt.Errorf("user %s follows %s but is not in its followers", u.ID, id)
			}
		}
		for _, id := range u.Followers {
			follower, ok := users[id]
			if !ok {
				return fmt.Errorf("user %s followed by unknown user %s", u.ID, id)
			}
			if !slices.Contains(follower.Following, u.ID) {
				return fmt.Errorf("user %s lists follower %s that does not follow it", u.ID, id)
			}
		}
	}

	posts := make(map[string]bool, len(d.Posts))
	for _, p := range d.Posts {
		if posts[p.ID] {
			return fmt.Errorf("duplicate post id %s", p.ID)
		}
		if _, ok := users[p.AuthorID]; !ok {
			return fmt.Errorf("post %s has unknown author %s", p.ID, p.AuthorID)
		}
		seen := make(map[string]bool, len(p.Likes))
		for _, id := range p.Likes {
			if seen[id] {
				return fmt.Errorf("post %s liked twice by %s", p.ID, id)
			}
			seen[id] = true
		}
		posts[p.ID] = true
	}

	for _, c := range d.Comments {
		if !posts[c.PostID] {
			return fmt.Errorf("comment %s on unknown post %s", c.ID, c.PostID)
		}
		if _, ok := users[c.AuthorID]; !ok {
			return fmt.Errorf("comment %s has unknown author %s", c.ID, c.AuthorID)
		}
	}

	for _, n := range d.Notifications {
		if !n.Kind.Valid() {
			return fmt.Errorf("notification %s has unknown kind %q", n.ID, n.Kind)
		}
		if _, ok := users[n.RecipientID]; !ok {
			return fmt.Errorf("notification %s has unknown recipient %s", n.ID, n.RecipientID)
		}
		if _, ok := users[n.ActorID]; !ok {
			return fmt.Errorf("notification %s has unknown actor %s", n.ID, n.ActorID)
		}
		if n.PostID != nil && !posts[*n.PostID] {
			return fmt.Errorf("notification %s on unknown post %s", n.ID, *n.PostID)
		}
	}

	return nil
}
