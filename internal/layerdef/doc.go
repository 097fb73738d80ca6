// Package layerdef enumerates the pre-authored symbology definitions the
// pipeline exports. Definitions are authored externally and read-only here.
package layerdef
