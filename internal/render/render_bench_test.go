package render

import "testing"

var benchmarkContent = "# Boot Failure\n\n" +
	"The machine halts before POST completes.\n\n" +
	"## Diagnostics\n\n" +
	"1. Disconnect all USB peripherals.\n" +
	"2. Reseat the RAM modules one at a time.\n" +
	"3. Clear CMOS via the motherboard jumper.\n\n" +
	"### Commands\n\n" +
	"`sudo dmesg --level=err,warn`\n\n" +
	"- Check the PSU 24-pin connector\n" +
	"* Inspect capacitors for bulging\n"

func BenchmarkLines(b *testing.B) {
	opts := DefaultOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Lines(benchmarkContent, opts)
	}
}

func BenchmarkGlamourNoCache(b *testing.B) {
	opts := DefaultOptions().WithEngine(EngineGlamour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ClearCache()
		if _, err := Markdown(benchmarkContent, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGlamourWithCache(b *testing.B) {
	opts := DefaultOptions().WithEngine(EngineGlamour)

	if _, err := Markdown(benchmarkContent, opts); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Markdown(benchmarkContent, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGlamourParallel(b *testing.B) {
	opts := DefaultOptions().WithEngine(EngineGlamour)

	if _, err := Markdown(benchmarkContent, opts); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := Markdown(benchmarkContent, opts); err != nil {
				b.Fatal(err)
			}
		}
	})
}
