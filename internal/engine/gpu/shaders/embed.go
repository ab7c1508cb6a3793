// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// TerrainVertexShader displaces the shared tile grid by a height texture.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainFragmentShader shades terrain and writes the tile's entity id.
//
//go:embed terrain.frag
var TerrainFragmentShader string
