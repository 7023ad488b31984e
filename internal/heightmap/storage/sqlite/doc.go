// Package sqlite is the run catalogue: one row per heightmap run (inputs,
// bounds, grid shape, pass statistics) and one row per committed region
// probe. The schema is applied from embedded golang-migrate migrations
// when the database is opened.
package sqlite
