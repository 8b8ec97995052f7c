// Package apiresponses provides standardized HTTP API response helpers
// shared by the api and ops packages without import cycles.
package apiresponses
