// Package utils provides request validation and tool parameter decoding.
package utils
