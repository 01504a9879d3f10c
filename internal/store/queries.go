package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/aptscope/internal/control"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
)

const packageColumns = `name, version, architecture, section, priority, synopsis, description,
	maintainer, homepage, source, installed_size, installed, auto, hold`

// Index operations

// ReplaceAll rebuilds the index in a single transaction. Installed packages
// take precedence over available entries with the same name.
func (s *Store) ReplaceAll(installed, available []*dpkg.Package) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM dependencies`, `DELETE FROM packages`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to clear index: %w", checkSchema(err))
		}
	}

	pkgStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO packages
		(name, version, architecture, section, category, priority, synopsis, description,
		 maintainer, homepage, source, installed_size, installed, auto, hold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare package insert: %w", err)
	}
	defer pkgStmt.Close()

	depStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO dependencies (package, depends_on, kind)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare dependency insert: %w", err)
	}
	defer depStmt.Close()

	inserted := make(map[string]bool, len(installed)+len(available))
	insert := func(pkg *dpkg.Package) error {
		if inserted[pkg.Name] {
			return nil
		}
		inserted[pkg.Name] = true

		_, err := pkgStmt.Exec(
			pkg.Name,
			pkg.Version,
			pkg.Architecture,
			pkg.Section,
			pkg.Category(),
			pkg.Priority,
			pkg.Synopsis,
			pkg.Description,
			pkg.Maintainer,
			pkg.Homepage,
			pkg.Source,
			pkg.InstalledSize,
			pkg.Installed,
			pkg.Auto,
			pkg.Hold,
		)
		if err != nil {
			return fmt.Errorf("failed to insert package %s: %w", pkg.Name, err)
		}

		for kind, field := range map[string]string{
			KindPreDepends: pkg.PreDepends,
			KindDepends:    pkg.Depends,
			KindRecommends: pkg.Recommends,
			KindSuggests:   pkg.Suggests,
		} {
			for _, group := range control.ParseRelations(field) {
				for _, rel := range group {
					if _, err := depStmt.Exec(pkg.Name, rel.Name, kind); err != nil {
						return fmt.Errorf("failed to insert dependency %s -> %s: %w", pkg.Name, rel.Name, err)
					}
				}
			}
		}
		return nil
	}

	var nInstalled, nAvailable int
	for _, pkg := range installed {
		if !pkg.Installed {
			continue
		}
		if err := insert(pkg); err != nil {
			return err
		}
		nInstalled++
	}
	for _, pkg := range available {
		if inserted[pkg.Name] {
			continue
		}
		if err := insert(pkg); err != nil {
			return err
		}
		nAvailable++
	}

	meta := map[string]string{
		"indexed_at": time.Now().UTC().Format(time.RFC3339),
		"installed":  strconv.Itoa(nInstalled),
		"available":  strconv.Itoa(nAvailable),
	}
	for key, value := range meta {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to record index metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Info returns metadata about the last index run.
func (s *Store) Info() (*IndexInfo, error) {
	rows, err := s.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", checkSchema(err))
	}
	defer rows.Close()

	info := &IndexInfo{}
	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		found = true

		switch key {
		case "indexed_at":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				info.IndexedAt = t
			}
		case "installed":
			info.Installed, _ = strconv.Atoi(value)
		case "available":
			info.Available, _ = strconv.Atoi(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata: %w", err)
	}
	if !found {
		return nil, ErrNotInitialized
	}

	return info, nil
}

// Package operations

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*dpkg.Package, error) {
	var pkg dpkg.Package
	err := row.Scan(
		&pkg.Name,
		&pkg.Version,
		&pkg.Architecture,
		&pkg.Section,
		&pkg.Priority,
		&pkg.Synopsis,
		&pkg.Description,
		&pkg.Maintainer,
		&pkg.Homepage,
		&pkg.Source,
		&pkg.InstalledSize,
		&pkg.Installed,
		&pkg.Auto,
		&pkg.Hold,
	)
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetPackage retrieves a package by name.
func (s *Store) GetPackage(name string) (*dpkg.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE name = ?`

	pkg, err := scanPackage(s.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package %s: %w", name, checkSchema(err))
	}
	return pkg, nil
}

// ListPackages returns every indexed package ordered by name.
func (s *Store) ListPackages(installedOnly bool) ([]*dpkg.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages`
	if installedOnly {
		query += ` WHERE installed = 1`
	}
	query += ` ORDER BY name`

	return s.queryPackages(query)
}

// ListByCategory returns the packages of a section category.
func (s *Store) ListByCategory(category string, installedOnly bool) ([]*dpkg.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE category = ?`
	if installedOnly {
		query += ` AND installed = 1`
	}
	query += ` ORDER BY name`

	return s.queryPackages(query, category)
}

// SearchNames returns packages whose name contains term, case-insensitively.
func (s *Store) SearchNames(term string, installedOnly bool) ([]*dpkg.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE name LIKE ? ESCAPE '\'`
	if installedOnly {
		query += ` AND installed = 1`
	}
	query += ` ORDER BY name`

	return s.queryPackages(query, "%"+escapeLike(strings.ToLower(term))+"%")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) queryPackages(query string, args ...any) ([]*dpkg.Package, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", checkSchema(err))
	}
	defer rows.Close()

	var packages []*dpkg.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	return packages, nil
}

// Names returns every indexed package name ordered by name.
func (s *Store) Names(installedOnly bool) ([]string, error) {
	query := `SELECT name FROM packages`
	if installedOnly {
		query += ` WHERE installed = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list package names: %w", checkSchema(err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating names: %w", err)
	}

	return names, nil
}

// ListCategories returns every category with its package counts.
func (s *Store) ListCategories() ([]*Category, error) {
	query := `
		SELECT category, COUNT(*), SUM(CASE WHEN installed THEN 1 ELSE 0 END)
		FROM packages
		WHERE category != ''
		GROUP BY category
		ORDER BY category
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", checkSchema(err))
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Count, &c.Installed); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Dependency operations

// GetDependencies returns the relationships declared by pkg.
func (s *Store) GetDependencies(pkg string) ([]*Dependency, error) {
	query := `
		SELECT package, depends_on, kind
		FROM dependencies
		WHERE package = ?
		ORDER BY kind, depends_on
	`
	return s.queryDependencies(query, pkg)
}

// GetDependents returns the packages that declare a relationship on pkg.
// With installedOnly, only installed dependents are returned.
func (s *Store) GetDependents(pkg string, installedOnly bool) ([]*Dependency, error) {
	query := `
		SELECT d.package, d.depends_on, d.kind
		FROM dependencies d
		JOIN packages p ON p.name = d.package
		WHERE d.depends_on = ?
	`
	if installedOnly {
		query += ` AND p.installed = 1`
	}
	query += ` ORDER BY d.package, d.kind`

	return s.queryDependencies(query, pkg)
}

func (s *Store) queryDependencies(query string, args ...any) ([]*Dependency, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", checkSchema(err))
	}
	defer rows.Close()

	var deps []*Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.Package, &d.DependsOn, &d.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan dependency row: %w", err)
		}
		deps = append(deps, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}

	return deps, nil
}
