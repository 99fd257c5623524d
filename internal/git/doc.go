// Package git reads the revision of the loader source tree so build reports
// and history can name what was built. It never modifies the repository.
package git
