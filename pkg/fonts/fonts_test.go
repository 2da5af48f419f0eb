package fonts

import "testing"

func TestFace(t *testing.T) {
	for _, style := range []Style{Regular, Italic} {
		face, err := Face(style, 24)
		if err != nil {
			t.Fatalf("Face(%d): %v", style, err)
		}
		if h := face.Metrics().Height.Ceil(); h < 20 || h > 40 {
			t.Errorf("style %d: line height %d out of range for 24pt", style, h)
		}
		face.Close()
	}
}

func TestFaceDefaultsSize(t *testing.T) {
	face, err := Face(Regular, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()
	if face.Metrics().Height.Ceil() <= 0 {
		t.Error("expected positive line height for default size")
	}
}
