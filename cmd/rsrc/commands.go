package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"rsrc/archive"
	"rsrc/common"
	"rsrc/config"
	"rsrc/images"
	"rsrc/provider"
	"rsrc/state"
)

// openProvider returns bundle provider honoring --mode flag of the command.
func openProvider(env *state.LocalEnv, cmd *cli.Command) (*provider.Provider, error) {
	p, err := env.Provider()
	if err != nil {
		return nil, err
	}
	if m := cmd.String("mode"); len(m) > 0 {
		mode, err := common.ParseResolutionMode(m)
		if err != nil {
			return nil, err
		}
		p = p.WithMode(mode)
	}
	return p, nil
}

func localeFor(p *provider.Provider, cmd *cli.Command) (language.Tag, error) {
	l := cmd.String("locale")
	if len(l) == 0 {
		return p.DefaultLocale(), nil
	}
	tag, err := language.Parse(l)
	if err != nil {
		return language.Und, fmt.Errorf("bad locale '%s': %w", l, err)
	}
	return tag, nil
}

// createOutput returns STDOUT when fname is empty.
func createOutput(fname string) (io.WriteCloser, string, error) {
	if len(fname) == 0 {
		return nopWriteCloser{os.Stdout}, "STDOUT", nil
	}
	out, err := os.Create(fname)
	if err != nil {
		return nil, fname, fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	return out, fname, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func outputString(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("resource key is required")
	}
	key := cmd.Args().First()

	p, err := openProvider(env, cmd)
	if err != nil {
		return err
	}
	tag, err := localeFor(p, cmd)
	if err != nil {
		return err
	}

	var args []any
	for _, a := range cmd.Args().Tail() {
		args = append(args, a)
	}

	text, err := p.GetString(tag, key, args...)
	if err != nil {
		return fmt.Errorf("unable to resolve '%s': %w", key, err)
	}
	env.Log.Debug("String resolved", zap.String("key", key), zap.Stringer("locale", tag), zap.Stringer("mode", p.Mode()))

	_, err = fmt.Fprintln(os.Stdout, text)
	return err
}

func outputImage(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("image name is required")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	name := cmd.Args().Get(0)
	size := int(cmd.Int("size"))
	scalable := cmd.Bool("scalable")

	p, err := openProvider(env, cmd)
	if err != nil {
		return err
	}

	var s *images.Stream
	switch {
	case scalable:
		s, err = p.GetScalableImage(name)
	case cmd.Bool("close"):
		s, err = p.FindCloseImage(name, size)
		if err == nil && s == nil {
			env.Log.Warn("No image matches requested size", zap.String("name", name), zap.Int("size", size))
			return nil
		}
	case size > 0:
		s, err = p.GetImageSize(name, size)
	default:
		s, err = p.GetImage(name)
	}
	if err != nil {
		return fmt.Errorf("unable to resolve image '%s': %w", name, err)
	}
	defer s.Close()

	out, fname, err := createOutput(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	defer out.Close()

	if s.Asset.Scalable && size > 0 {
		data, err := io.ReadAll(s)
		if err != nil {
			return fmt.Errorf("unable to read image '%s': %w", s.Asset.Path, err)
		}
		img, err := images.Rasterize(data, size)
		if err != nil {
			return fmt.Errorf("unable to render image '%s': %w", s.Asset.Path, err)
		}
		if err := imaging.Encode(out, img, imaging.PNG); err != nil {
			return fmt.Errorf("unable to write image: %w", err)
		}
	} else if _, err := io.Copy(out, s); err != nil {
		return fmt.Errorf("unable to write image: %w", err)
	}

	env.Log.Info("Image written",
		zap.String("name", name),
		zap.String("source", s.Asset.Path),
		zap.Bool("placeholder", s.Placeholder),
		zap.String("file", fname))
	return nil
}

func checkBundle(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	path := cmd.Args().First()
	if len(path) == 0 {
		path = env.Cfg.Resources.Bundle
	}

	fsys, closer, err := archive.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open resource bundle '%s': %w", path, err)
	}
	defer closer.Close()

	env.Rpt.Store("bundle", path)
	env.Log.Info("Checking resource bundle", zap.String("bundle", path))

	if err := provider.Check(fsys, &env.Cfg.Resources, env.Log); err != nil {
		return fmt.Errorf("resource bundle '%s' has problems: %w", path, err)
	}
	return nil
}

func listResources(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	p, err := openProvider(env, cmd)
	if err != nil {
		return err
	}

	var lines []string
	switch {
	case cmd.Bool("locales"):
		lines = p.Locales()
	case cmd.Bool("images"):
		names, err := p.ImageNames()
		if err != nil {
			return fmt.Errorf("unable to list images: %w", err)
		}
		for _, name := range names {
			var variants []string
			for _, size := range p.Sizes(name) {
				if size == 0 {
					variants = append(variants, "unsized")
					continue
				}
				variants = append(variants, strconv.Itoa(size))
			}
			if p.HasScalable(name) {
				variants = append(variants, "scalable")
			}
			lines = append(lines, name+"\t"+strings.Join(variants, ","))
		}
	default:
		tag, err := localeFor(p, cmd)
		if err != nil {
			return err
		}
		if lines, err = p.Keys(tag); err != nil {
			return fmt.Errorf("unable to list keys for %s: %w", tag, err)
		}
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(os.Stdout, l); err != nil {
			return err
		}
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err   error
		data  []byte
		state string
	)

	out, fname, err := createOutput(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer out.Close()

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
