package store

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    version TEXT,
    architecture TEXT,
    section TEXT,
    category TEXT,
    priority TEXT,
    synopsis TEXT,
    description TEXT,
    maintainer TEXT,
    homepage TEXT,
    source TEXT,
    installed_size INTEGER,
    installed BOOLEAN,
    auto BOOLEAN,
    hold BOOLEAN
);

CREATE TABLE IF NOT EXISTS dependencies (
    package TEXT NOT NULL,
    depends_on TEXT NOT NULL,
    kind TEXT NOT NULL,
    PRIMARY KEY (package, depends_on, kind),
    FOREIGN KEY (package) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE INDEX IF NOT EXISTS idx_packages_category ON packages(category);
CREATE INDEX IF NOT EXISTS idx_deps_package ON dependencies(package);
CREATE INDEX IF NOT EXISTS idx_deps_depends ON dependencies(depends_on);
`
