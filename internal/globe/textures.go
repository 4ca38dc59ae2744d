package globe

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// LoadTextures decodes the day, night and specular maps from disk. An empty path
// leaves the corresponding map nil.
func LoadTextures(day, night, specular string) (Textures, error) {
	var (
		tex Textures
		err error
	)
	if tex.Day, err = loadImage(day); err != nil {
		return Textures{}, err
	}
	if tex.Night, err = loadImage(night); err != nil {
		return Textures{}, err
	}
	if tex.Specular, err = loadImage(specular); err != nil {
		return Textures{}, err
	}
	return tex, nil
}

func loadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return img, nil
}
