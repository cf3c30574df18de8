package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animkit/internal/config"
	"github.com/ivlev/animkit/internal/preview"
	"github.com/ivlev/animkit/internal/project"
	"github.com/ivlev/animkit/internal/system"
	"github.com/ivlev/animkit/internal/timeline"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	// Создаем нужные директории, если их нет
	dirs := []string{cfg.ProjectsDir, "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	projectPtr := flag.String("project", cfg.ProjectPath, "Путь к YAML-проекту (по умолчанию: самый свежий файл в projects/)")
	savePtr := flag.String("save", cfg.SavePath, "Сохранить таймлайн в JSON-файл после загрузки проекта")
	loadPtr := flag.String("load", cfg.LoadPath, "Загрузить таймлайн из JSON-файла поверх проекта")
	playPtr := flag.Bool("play", cfg.Play, "Проиграть таймлайн от начала до конца")
	previewPtr := flag.String("preview", cfg.PreviewPath, "Каталог для PNG-превью кривых (если пусто, превью не рендерится)")
	previewWidthPtr := flag.Int("preview-width", cfg.PreviewWidth, "Ширина превью в пикселях")
	fpsPtr := flag.Float64("fps", cfg.FPS, "Частота кадров воспроизведения")
	statsPtr := flag.Bool("stats", cfg.ShowStats, "Показать отчет о производительности")

	flag.Parse()

	startTime := time.Now()

	projectPath := *projectPtr
	if projectPath == "" {
		latest, err := project.FindLatest(cfg.ProjectsDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите YAML-проект в %s/", err, cfg.ProjectsDir)
		}
		projectPath = latest
		fmt.Printf("[*] Выбран проект: %s\n", projectPath)
	}

	p, err := project.Read(projectPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения проекта: %v", err)
	}

	rig, err := p.Build()
	if err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}
	fmt.Printf("[*] Проект %q: %d каналов, %d ключей, %.2fs @ %.0f fps\n",
		p.Name, rig.Interp.ChannelCount(), rig.Interp.TotalKeyframeCount(),
		rig.Timeline.Duration(), rig.Timeline.FPS())

	if *fpsPtr > 0 {
		rig.Timeline.SetFPS(*fpsPtr)
	}

	if *loadPtr != "" {
		data, err := os.ReadFile(*loadPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения %s: %v", *loadPtr, err)
		}
		if err := rig.Timeline.Deserialize(data); err != nil {
			log.Fatalf("[-] Ошибка загрузки таймлайна: %v", err)
		}
		fmt.Printf("[*] Таймлайн загружен из %s\n", *loadPtr)
	}

	if *playPtr {
		playTimeline(rig)
	}

	if *previewPtr != "" {
		if err := renderPreviews(rig, *previewPtr, *previewWidthPtr); err != nil {
			log.Fatalf("[-] Ошибка превью: %v", err)
		}
	}

	if *savePtr != "" {
		data, err := rig.Timeline.Serialize()
		if err != nil {
			log.Fatalf("[-] Ошибка сериализации: %v", err)
		}
		if err := os.WriteFile(*savePtr, data, 0644); err != nil {
			log.Fatalf("[-] Ошибка записи %s: %v", *savePtr, err)
		}
		fmt.Printf("[*] Таймлайн сохранен в %s\n", *savePtr)
	}

	if *statsPtr {
		stats, err := system.CollectStats()
		if err != nil {
			log.Printf("[!] Не удалось собрать статистику: %v", err)
		} else {
			fmt.Print(stats.Report(cfg.BuildVersion, time.Since(startTime)))
			system.AppendBenchmarkLog("benchmark.log", fmt.Sprintf(
				"Build: %s | Project: %s | Channels: %d | Total: %.2fs",
				cfg.BuildVersion, filepath.Base(projectPath),
				rig.Interp.ChannelCount(), time.Since(startTime).Seconds()))
		}
	}

	fmt.Printf("[+++] Готово за %.2fs\n", time.Since(startTime).Seconds())
}

// playTimeline прогоняет таймлайн по кадрам, как это делал бы UI-тик.
func playTimeline(rig *project.Rig) {
	dt := 1 / rig.Timeline.FPS()
	frames := rig.Timeline.FrameCount()

	// Режимы loop/pingpong бесконечны, ограничиваемся двумя проходами
	maxFrames := frames
	if rig.Timeline.LoopMode() != timeline.LoopNone {
		maxFrames = frames * 2
	}

	fmt.Printf("[*] Воспроизведение: %d кадров, dt=%.4fs\n", maxFrames, dt)

	rig.Timeline.Play()
	played := 0
	for i := 0; i < maxFrames; i++ {
		if !rig.Timeline.Advance(dt) {
			played = i + 1
			break
		}
		played = i + 1
	}
	rig.Timeline.Stop()

	fmt.Printf("[*] Проиграно кадров: %d\n", played)
	if rig.Camera != nil {
		fmt.Printf("[*] Финальная камера: az=%.1f el=%.1f dist=%.2f\n",
			rig.Camera.Azimuth, rig.Camera.Elevation, rig.Camera.Distance)
	}
}

// renderPreviews рендерит обзорный график и по одному PNG на канал параллельно.
func renderPreviews(rig *project.Rig, dir string, width int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	opts := preview.DefaultOptions()
	opts.Width = width
	opts.Height = width * 9 / 16

	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error {
		img, err := preview.RenderChannels(rig.Interp, opts)
		if err != nil {
			return err
		}
		return preview.WritePNG(img, filepath.Join(dir, "overview.png"))
	})

	duration := rig.Timeline.Duration()
	for _, ch := range rig.Interp.Channels() {
		c := ch.Curve
		name := strings.ReplaceAll(c.Name(), " ", "_")
		g.Go(func() error {
			img, err := preview.RenderCurve(c, 0, duration, opts)
			if err != nil {
				return err
			}
			return preview.WritePNG(img, filepath.Join(dir, name+".png"))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("[*] Превью записаны в %s/\n", dir)
	return nil
}
