// Package seed loads YAML fixtures and replays them through the catalog and
// release services, so seeded data obeys the same rules as API traffic.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/localnerve/blockrelease/data"
	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/services"
	"github.com/localnerve/blockrelease/internal/types"
	"gopkg.in/yaml.v3"
)

// Fixtures is the root of a seed file.
type Fixtures struct {
	Apps []App `yaml:"apps"`
}

type App struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Platform    string   `yaml:"platform"`
	Members     []Member `yaml:"members"`
	Blocks      []Block  `yaml:"blocks"`
}

type Member struct {
	UserID    string   `yaml:"userId"`
	UserName  string   `yaml:"userName"`
	UserEmail string   `yaml:"userEmail"`
	Role      string   `yaml:"role"`
	Regions   []string `yaml:"regions"`
}

type Block struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Type        string    `yaml:"type"`
	Category    string    `yaml:"category"`
	Versions    []Version `yaml:"versions"`
}

// Version is created as a draft, then optionally submitted, approved and
// published in the listed environment order.
type Version struct {
	Version        string   `yaml:"version"`
	Type           string   `yaml:"type"`
	Region         string   `yaml:"region"`
	Changelog      string   `yaml:"changelog"`
	Config         string   `yaml:"config"`
	PackageName    string   `yaml:"packageName"`
	PackageContent string   `yaml:"packageContent"`
	Submit         bool     `yaml:"submit"`
	Approve        bool     `yaml:"approve"`
	Publish        []string `yaml:"publish"`
}

// Result counts what Apply created.
type Result struct {
	Apps      int
	Members   int
	Blocks    int
	Versions  int
	Approvals int
	Publishes int
}

// Parse decodes fixtures, rejecting unknown fields.
func Parse(raw []byte) (*Fixtures, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Load reads fixtures from path, or the embedded demo set when path is empty.
func Load(path string) (*Fixtures, error) {
	if path == "" {
		return Parse(data.DemoSeed)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(raw)
}

func (fx *Fixtures) validate() error {
	for i, app := range fx.Apps {
		if strings.TrimSpace(app.Name) == "" {
			return fmt.Errorf("apps[%d]: name is required", i)
		}
		for j, block := range app.Blocks {
			for k, v := range block.Versions {
				for _, env := range v.Publish {
					if !registry.IsEnvironment(env) {
						return fmt.Errorf("apps[%d].blocks[%d].versions[%d]: unknown environment %q", i, j, k, env)
					}
				}
				if v.Approve && !v.Submit {
					// approval implies a request
					fx.Apps[i].Blocks[j].Versions[k].Submit = true
				}
			}
		}
	}
	return nil
}

// Apply creates everything in fx on behalf of actor. It stops at the first
// failure; whatever was created before it stays.
func Apply(ctx context.Context, catalog *services.CatalogService, releases *release.Service, actor string, fx *Fixtures) (Result, error) {
	var res Result

	for _, a := range fx.Apps {
		app, err := catalog.CreateApp(ctx, services.AppInput{
			Name:        a.Name,
			Description: a.Description,
			Platform:    a.Platform,
		})
		if err != nil {
			return res, fmt.Errorf("app %s: %w", a.Name, err)
		}
		res.Apps++

		for _, m := range a.Members {
			if _, err := catalog.AddMember(ctx, app.ID, services.MemberInput{
				UserID:    m.UserID,
				UserName:  m.UserName,
				UserEmail: m.UserEmail,
				Role:      m.Role,
				Regions:   types.FlexList[string](m.Regions),
			}); err != nil {
				return res, fmt.Errorf("app %s member %s: %w", a.Name, m.UserID, err)
			}
			res.Members++
		}

		for _, b := range a.Blocks {
			block, err := catalog.CreateBlock(ctx, actor, services.BlockInput{
				AppID:       app.ID,
				Name:        b.Name,
				Description: b.Description,
				Type:        b.Type,
				Category:    b.Category,
			})
			if err != nil {
				return res, fmt.Errorf("block %s: %w", b.Name, err)
			}
			res.Blocks++

			for _, v := range b.Versions {
				if err := applyVersion(ctx, catalog, releases, actor, block.ID, v, &res); err != nil {
					return res, fmt.Errorf("block %s version %s: %w", b.Name, v.Version, err)
				}
			}
		}
	}

	log.Printf("seed: %d apps, %d members, %d blocks, %d versions, %d approvals, %d publishes",
		res.Apps, res.Members, res.Blocks, res.Versions, res.Approvals, res.Publishes)
	return res, nil
}

func applyVersion(ctx context.Context, catalog *services.CatalogService, releases *release.Service, actor, blockID string, v Version, res *Result) error {
	in := services.VersionInput{
		BlockID:   blockID,
		Version:   v.Version,
		Type:      v.Type,
		Region:    v.Region,
		Changelog: v.Changelog,
		Config:    v.Config,
	}
	if v.PackageName != "" {
		in.Package = &services.PackageUpload{
			Filename: v.PackageName,
			Reader:   strings.NewReader(v.PackageContent),
		}
	}

	version, err := catalog.CreateVersion(ctx, actor, in)
	if err != nil {
		return err
	}
	res.Versions++

	if v.Submit {
		req, err := releases.SubmitApproval(ctx, actor, version.ID)
		if err != nil {
			return err
		}
		if v.Approve {
			if _, err := releases.ApproveRequest(ctx, actor, req.ID, "seeded"); err != nil {
				return err
			}
			res.Approvals++
		}
	}

	for _, env := range v.Publish {
		if _, err := releases.PublishVersion(ctx, actor, version.ID, env, ""); err != nil {
			return err
		}
		res.Publishes++
	}
	return nil
}
