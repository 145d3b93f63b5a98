// Package seed migrates the schema and upserts the reference catalog of
// roles, modules, permissions and grants.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"consola/internal/auth/password"
	"consola/internal/config"
	"consola/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const wildcard = "*"

type Catalog struct {
	Actions []string      `yaml:"actions"`
	Modules []ModuleEntry `yaml:"modules"`
	Roles   []RoleEntry   `yaml:"roles"`
}

type ModuleEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
	Route       string `yaml:"route"`
	Order       int    `yaml:"order"`
}

type RoleEntry struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Level       int                 `yaml:"level"`
	Grants      map[string][]string `yaml:"grants"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Roles) == 0 {
		return nil, errors.New("catalog: no roles")
	}
	modules := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		modules[m.Name] = true
	}
	for _, r := range c.Roles {
		for mod := range r.Grants {
			if mod != wildcard && !modules[mod] {
				return nil, fmt.Errorf("catalog: role %q grants unknown module %q", r.Name, mod)
			}
		}
	}
	return &c, nil
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Apply upserts the catalog inside one transaction. It is safe to run on
// every start.
func Apply(ctx context.Context, db *gorm.DB, c *Catalog) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]map[string]uint) // module -> action -> permission id
		for _, m := range c.Modules {
			mod := models.Module{Name: m.Name}
			err := tx.Where(models.Module{Name: m.Name}).
				Assign(models.Module{Description: m.Description, Icon: m.Icon, Route: m.Route, Order: m.Order}).
				FirstOrCreate(&mod).Error
			if err != nil {
				return fmt.Errorf("module %s: %w", m.Name, err)
			}
			perms[m.Name] = make(map[string]uint, len(c.Actions))
			for _, action := range c.Actions {
				p := models.Permission{ModuleID: mod.ID, Action: action}
				if err := tx.Where(p).FirstOrCreate(&p).Error; err != nil {
					return fmt.Errorf("permission %s/%s: %w", m.Name, action, err)
				}
				perms[m.Name][action] = p.ID
			}
		}

		for _, r := range c.Roles {
			role := models.Role{Name: r.Name}
			err := tx.Where(models.Role{Name: r.Name}).
				Assign(models.Role{Description: r.Description, AccessLevel: r.Level}).
				FirstOrCreate(&role).Error
			if err != nil {
				return fmt.Errorf("role %s: %w", r.Name, err)
			}
			for _, pid := range expandGrants(r.Grants, perms) {
				grant := models.RolePermission{RoleID: role.ID, PermissionID: pid}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
					return fmt.Errorf("grant %s: %w", r.Name, err)
				}
			}
		}
		return nil
	})
}

func expandGrants(grants map[string][]string, perms map[string]map[string]uint) []uint {
	set := make(map[uint]struct{})
	for mod, actions := range grants {
		var targets []map[string]uint
		if mod == wildcard {
			for _, byAction := range perms {
				targets = append(targets, byAction)
			}
		} else if byAction, ok := perms[mod]; ok {
			targets = append(targets, byAction)
		}
		for _, byAction := range targets {
			for _, a := range actions {
				if a == wildcard {
					for _, id := range byAction {
						set[id] = struct{}{}
					}
				} else if id, ok := byAction[a]; ok {
					set[id] = struct{}{}
				}
			}
		}
	}
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Admin creates the bootstrap administrator with the most privileged role
// unless a user with the same username or email already exists.
func Admin(ctx context.Context, db *gorm.DB, a config.AdminSeed, lg *zap.SugaredLogger) error {
	if !a.Enabled() {
		return nil
	}
	tx := db.WithContext(ctx)
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ? OR email = ?", a.Username, a.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if count > 0 {
		return nil
	}
	var top models.Role
	if err := tx.Order("access_level DESC").First(&top).Error; err != nil {
		return fmt.Errorf("find admin role: %w", err)
	}
	hash, err := password.Hash(a.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	u := models.User{
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: hash,
		DisplayName:  "Administrador del sistema",
		Active:       true,
		RoleID:       top.ID,
	}
	if err := tx.Omit("Role").Create(&u).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	lg.Infow("seeded default admin", "username", a.Username, "role", top.Name)
	return nil
}
