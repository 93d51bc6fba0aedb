// Package scene defines the typed script values that flow through the render
// pipeline and the ingress validation applied before a job is created.
package scene
