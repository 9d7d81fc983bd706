package serial

import "testing"

func TestFrameBufferReassembly(t *testing.T) {
	t.Run("Frame Split Across Chunks", func(t *testing.T) {
		var buf frameBuffer
		buf.Append("FA0001406200")
		if _, ok := buf.Next(); ok {
			t.Fatal("Expected no frame before delimiter arrives")
		}
		buf.Append("0;")
		frame, ok := buf.Next()
		if !ok {
			t.Fatal("Expected a frame after delimiter arrives")
		}
		if frame != "FA00014062000;" {
			t.Errorf("Expected frame FA00014062000; got %q", frame)
		}
	})

	t.Run("Multiple Frames FIFO", func(t *testing.T) {
		var buf frameBuffer
		buf.Append("MD3;FA00014062000;IF")
		first, ok := buf.Next()
		if !ok || first != "MD3;" {
			t.Errorf("Expected first frame MD3; got %q (ok=%v)", first, ok)
		}
		second, ok := buf.Next()
		if !ok || second != "FA00014062000;" {
			t.Errorf("Expected second frame FA00014062000; got %q (ok=%v)", second, ok)
		}
		if _, ok := buf.Next(); ok {
			t.Error("Expected partial tail to be retained, not delivered")
		}
		if buf.Len() != 2 {
			t.Errorf("Expected 2 retained bytes, got %d", buf.Len())
		}
	})

	t.Run("Delimiter Only", func(t *testing.T) {
		var buf frameBuffer
		buf.Append(";")
		frame, ok := buf.Next()
		if !ok || frame != ";" {
			t.Errorf("Expected bare delimiter frame, got %q (ok=%v)", frame, ok)
		}
	})

	t.Run("Reset Discards Partial Data", func(t *testing.T) {
		var buf frameBuffer
		buf.Append("FA000")
		buf.Reset()
		buf.Append("140;")
		frame, ok := buf.Next()
		if !ok || frame != "140;" {
			t.Errorf("Expected frame 140; after reset, got %q (ok=%v)", frame, ok)
		}
	})
}

func TestDecodeChunk(t *testing.T) {
	t.Run("ASCII Passthrough", func(t *testing.T) {
		if got := decodeChunk([]byte("FA;")); got != "FA;" {
			t.Errorf("Expected FA; got %q", got)
		}
	})

	t.Run("Hex Fallback For Invalid UTF8", func(t *testing.T) {
		if got := decodeChunk([]byte{0xFF, 0x41}); got != "FF 41" {
			t.Errorf("Expected hex dump FF 41, got %q", got)
		}
	})
}
