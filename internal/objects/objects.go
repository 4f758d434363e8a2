// Package objects contains the domain records shared by the cache engine,
// the mutation layer and the services.
// To avoid circular dependencies, we put them here.
package objects
