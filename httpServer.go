package main

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Fortinbra/PicoMonsterEyes/internal/anim"
)

const (
	DEFAULT_PREVIEW_SCALE = 3
	MAX_PREVIEW_SCALE     = 8
)

func sendPNG(c *fiber.Ctx, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
	}
	c.Set("Content-Type", "image/png")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	c.Set("Cache-Control", "no-store")
	return c.Send(buf.Bytes())
}

func previewScale(c *fiber.Ctx, def int) (int, bool) {
	scale := c.QueryInt("scale", def)
	return scale, scale >= 1 && scale <= MAX_PREVIEW_SCALE
}

func badScale(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).SendString("scale must be 1.." + strconv.Itoa(MAX_PREVIEW_SCALE))
}

type emotionBody struct {
	Emotion string `json:"emotion"`
	Next    bool   `json:"next"`
}

type stateResponse struct {
	State anim.State `json:"state"`
	Stats FrameStats `json:"stats"`
}

// newApp serves the eyes preview:
//
//	GET  /              both eyes with state overlay and frame graph
//	GET  /frame/:eye    one panel, eye is left or right
//	GET  /state         controller state and frame stats
//	GET  /frames        recent frame samples
//	GET  /emotions      emotion names
//	POST /emotion       {"emotion":"sad"} or {"next":true}
func newApp(e *eyes) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/", func(c *fiber.Ctx) error {
		scale, ok := previewScale(c, DEFAULT_PREVIEW_SCALE)
		if !ok {
			return badScale(c)
		}
		img := renderPreview(e.preview[0].Image(), e.preview[1].Image(), e.State(), e.frames.snapshot(), scale, true)
		return sendPNG(c, img)
	})

	app.Get("/frame/:eye", func(c *fiber.Ctx) error {
		var panel int
		switch c.Params("eye") {
		case "left":
			panel = 0
		case "right":
			panel = 1
		default:
			return c.Status(fiber.StatusNotFound).SendString("eye must be left or right")
		}
		scale, ok := previewScale(c, 1)
		if !ok {
			return badScale(c)
		}
		src := e.preview[panel].Image()
		if scale == 1 {
			return sendPNG(c, src)
		}
		dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx()*scale, src.Bounds().Dy()*scale))
		upscale(dst, dst.Bounds(), src)
		return sendPNG(c, dst)
	})

	app.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(stateResponse{State: e.State(), Stats: frameStats(e.frames.snapshot())})
	})

	app.Get("/frames", func(c *fiber.Ctx) error {
		return c.JSON(e.frames.snapshot())
	})

	app.Get("/emotions", func(c *fiber.Ctx) error {
		return c.JSON(anim.Emotions())
	})

	app.Post("/emotion", func(c *fiber.Ctx) error {
		var body emotionBody
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
		}
		req := emotionRequest{Next: body.Next}
		if !body.Next {
			em, err := anim.ParseEmotion(body.Emotion)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).SendString("emotion must be one of: " + emotionNames())
			}
			req.Emotion = em
		}
		if !requestEmotion(e.requests, req) {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Busy, try again")
		}
		return c.Status(fiber.StatusAccepted).SendString("Emotion queued")
	})

	return app
}

func httpServer(addr string, e *eyes) error {
	log.Println("Starting Fiber server on", addr)
	return newApp(e).Listen(addr)
}
