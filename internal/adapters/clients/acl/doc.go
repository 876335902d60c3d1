// Package acl is the anti-corruption layer between the domain and the
// remote quote source. It owns the remote wire format (a posts-style JSON
// API) and translates it to domain quotes, so external ids, field names,
// and HTTP failures never leak past this package.
package acl
