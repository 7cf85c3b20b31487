// Package formats provides parsers for Wavefront OBJ meshes and MTL
// material libraries.
package formats
