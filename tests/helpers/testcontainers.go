// testcontainers.go
//
// Block release service: versioned blocks, approval gating and per-environment publication
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of blockrelease.
// blockrelease is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// blockrelease is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with blockrelease.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/localnerve/blockrelease/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ServicePort is the port the service listens on inside its container.
const ServicePort = "3000"

type TestContainers struct {
	Network          *testcontainers.DockerNetwork
	DBContainer      testcontainers.Container
	ServiceContainer testcontainers.Container
	BuilderContainer testcontainers.Container

	dbType string
	dbPort nat.Port
}

// DatabaseSettings describes the database container and the credentials the
// service uses against it. Zero fields fall back to environment variables and
// then to defaults.
type DatabaseSettings struct {
	Type     string // mariadb, mysql or postgres
	Image    string
	Database string
	User     string
	Password string
	RootPass string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DatabaseSettingsFromEnv reads DB_TYPE, DB_IMAGE, DB_APP_DATABASE,
// DB_APP_USER, DB_APP_PASSWORD and DB_ROOT_PASSWORD.
func DatabaseSettingsFromEnv() DatabaseSettings {
	s := DatabaseSettings{
		Type:     envOr("DB_TYPE", "mariadb"),
		Database: envOr("DB_APP_DATABASE", "blockrelease"),
		User:     envOr("DB_APP_USER", "blockrelease"),
		Password: envOr("DB_APP_PASSWORD", "blockrelease-pass"),
		RootPass: envOr("DB_ROOT_PASSWORD", "root-pass"),
	}
	s.Image = os.Getenv("DB_IMAGE")
	if s.Image == "" {
		s.Image = DefaultImage(s.Type)
	}
	return s
}

// DefaultImage is the container image used for dbType when DB_IMAGE is unset.
func DefaultImage(dbType string) string {
	switch dbType {
	case "postgres":
		return "postgres:16-alpine"
	case "mysql":
		return "mysql:8.4"
	default:
		return "mariadb:11"
	}
}

func (s DatabaseSettings) port() nat.Port {
	if s.Type == "postgres" {
		return "5432/tcp"
	}
	return "3306/tcp"
}

func (s DatabaseSettings) env() map[string]string {
	switch s.Type {
	case "postgres":
		return map[string]string{
			"POSTGRES_PASSWORD": s.Password,
			"POSTGRES_USER":     s.User,
			"POSTGRES_DB":       s.Database,
		}
	default:
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": s.RootPass,
			"MYSQL_DATABASE":      s.Database,
			"MYSQL_USER":          s.User,
			"MYSQL_PASSWORD":      s.Password,
		}
	}
}

func (s DatabaseSettings) waitStrategy() wait.Strategy {
	if s.Type == "postgres" {
		return wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second)
	}
	return wait.ForListeningPort(s.port()).WithStartupTimeout(90 * time.Second)
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.ServiceContainer != nil {
		if err := tc.ServiceContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate service: %v", err)
		}
	}
	if tc.BuilderContainer != nil {
		if err := tc.BuilderContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate builder: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// StartDatabase starts only a database container, for tests that run the
// services in-process against a real engine.
func StartDatabase(t *testing.T, settings DatabaseSettings) (*TestContainers, *config.Config) {
	t.Helper()
	ctx := context.Background()
	tc := &TestContainers{}
	if err := tc.startDatabase(ctx, t, settings, ""); err != nil {
		tc.Terminate(t)
		t.Fatalf("Failed to start database: %v", err)
	}
	cfg, err := tc.DatabaseConfig(ctx, settings)
	if err != nil {
		tc.Terminate(t)
		t.Fatalf("Failed to resolve database address: %v", err)
	}
	return tc, cfg
}

func (tc *TestContainers) startDatabase(ctx context.Context, t *testing.T, settings DatabaseSettings, networkName string) error {
	req := testcontainers.ContainerRequest{
		Image:        settings.Image,
		ExposedPorts: []string{string(settings.port())},
		Env:          settings.env(),
		WaitingFor:   settings.waitStrategy(),
	}
	if networkName != "" {
		req.Networks = []string{networkName}
		req.NetworkAliases = map[string][]string{networkName: {"db"}}
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return err
	}
	tc.DBContainer = dbContainer
	tc.dbType = settings.Type
	tc.dbPort = settings.port()

	if settings.Type != "postgres" {
		host, _ := dbContainer.Host(ctx)
		port, _ := dbContainer.MappedPort(ctx, settings.port())
		if err := waitForMySQL(settings, host, port); err != nil {
			return err
		}
	}
	logMessage(t, "%s database %s ready", settings.Type, settings.Database)
	return nil
}

// DatabaseConfig points a config at the mapped database port on the host.
func (tc *TestContainers) DatabaseConfig(ctx context.Context, settings DatabaseSettings) (*config.Config, error) {
	host, err := tc.DBContainer.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := tc.DBContainer.MappedPort(ctx, tc.dbPort)
	if err != nil {
		return nil, err
	}
	dbType := settings.Type
	if dbType == "mariadb" {
		dbType = "mysql"
	}
	return &config.Config{
		DBType:               dbType,
		DBHost:               host,
		DBPort:               port.Port(),
		DBAppDatabase:        settings.Database,
		DBAppUser:            settings.User,
		DBAppPassword:        settings.Password,
		DBAppConnectionLimit: 8,
		AuthMode:             config.AuthModeJWT,
		JWTSecret:            TestJWTSecret,
		PackageStoreURL:      "mem://localhost/packages",
	}, nil
}

// waitForMySQL pings until the server accepts the app user.
func waitForMySQL(settings DatabaseSettings, host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", settings.User, settings.Password, host, port.Port(), settings.Database))
	if err != nil {
		return fmt.Errorf("failed to open %s for setup: %w", settings.Type, err)
	}
	defer db.Close()

	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("%s not ready after 30 seconds: %w", settings.Type, err)
}

// CreateAllTestContainers starts a database and the service image on a shared
// network. The service runs with AUTH_MODE=jwt and in-memory package storage.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}
	settings := DatabaseSettingsFromEnv()

	debugContainer := os.Getenv("DEBUG_CONTAINER")

	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	if err := testContainers.startDatabase(ctx, t, settings, networkName); err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start database")
	}

	imageName := "blockrelease-test:latest"
	exists, err := imageExists(ctx, imageName)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to check if image exists")
	}

	tcpServicePort, err := nat.NewPort("tcp", ServicePort)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create service port")
	}

	exposedPorts := []string{string(tcpServicePort)}
	if debugContainer == "true" {
		exposedPorts = append(exposedPorts, "2345/tcp")
	}

	hostConfigModifier := func(hostConfig *container.HostConfig) {
		if debugContainer == "true" {
			hostConfig.PortBindings = nat.PortMap{
				"2345/tcp": []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "2345"}},
			}
			hostConfig.CapAdd = []string{"SYS_PTRACE"}
			hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
		}
	}

	var waitStrategy wait.Strategy = wait.ForHTTP("/health").WithPort(tcpServicePort).WithStartupTimeout(60 * time.Second)
	if debugContainer == "true" {
		waitStrategy = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
	}

	dbType := settings.Type
	if dbType == "mariadb" {
		dbType = "mysql"
	}
	serviceRequest := testcontainers.ContainerRequest{
		ExposedPorts: exposedPorts,
		Env: map[string]string{
			"DB_TYPE":                 dbType,
			"DB_HOST":                 "db",
			"DB_PORT":                 settings.port().Port(),
			"DB_APP_DATABASE":         settings.Database,
			"DB_APP_USER":             settings.User,
			"DB_APP_PASSWORD":         settings.Password,
			"DB_APP_CONNECTION_LIMIT": envOr("DB_APP_CONNECTION_LIMIT", "8"),
			"AUTH_MODE":               config.AuthModeJWT,
			"JWT_SECRET":              TestJWTSecret,
			"PACKAGE_STORE_URL":       "mem://localhost/packages",
			"PORT":                    ServicePort,
		},
		HostConfigModifier: hostConfigModifier,
		WaitingFor:         waitStrategy,
		Networks:           []string{networkName},
	}

	if debugContainer == "true" {
		serviceRequest.Entrypoint = []string{
			"/usr/local/bin/dlv",
			"--listen=:2345",
			"--headless=true",
			"--api-version=2",
			"--accept-multiclient",
			"exec",
			"./blockrelease",
		}
	}

	if !exists {
		sessionID := uuid.New().String()
		buildArgs := map[string]*string{
			"RESOURCE_REAPER_SESSION_ID": &sessionID,
		}
		if debugContainer == "true" {
			buildArgs["DEBUG"] = &debugContainer
		}

		buildContext := envOr("TESTCONTAINERS_BUILD_CONTEXT", "../..")

		logMessage(t, "Image %s does not exist, building...", imageName)
		builder, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				FromDockerfile: testcontainers.FromDockerfile{
					Context:    buildContext,
					Dockerfile: "Dockerfile",
					Repo:       "blockrelease-test-builder",
					Tag:        "latest",
					BuildArgs:  buildArgs,
					BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
						opts.Target = "builder"
					},
					PrintBuildLog: true,
				},
			},
			Started: false,
		})
		if err != nil {
			testContainers.Terminate(t)
			exitWithError(t, err, "Failed to build blockrelease-test-builder")
		}
		testContainers.BuilderContainer = builder

		repo, tag, _ := strings.Cut(imageName, ":")
		serviceRequest.FromDockerfile = testcontainers.FromDockerfile{
			Context:    buildContext,
			Dockerfile: "Dockerfile",
			Repo:       repo,
			Tag:        tag,
			KeepImage:  true,
			BuildArgs:  buildArgs,
			BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
				opts.Target = "runtime"
			},
			PrintBuildLog: true,
		}
	} else {
		logMessage(t, "Image %s exists, reusing...", imageName)
		serviceRequest.Image = imageName
	}

	service, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: serviceRequest,
		Started:          true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start blockrelease")
	}
	testContainers.ServiceContainer = service

	baseURL, _ := testContainers.BaseURL(ctx)
	logMessage(t, "BASE_URL=%s", baseURL)
	logMessage(t, "blockrelease testcontainer started successfully")
	return testContainers, nil
}

// BaseURL is the host-reachable URL of the service container.
func (tc *TestContainers) BaseURL(ctx context.Context) (string, error) {
	host, err := tc.ServiceContainer.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := tc.ServiceContainer.MappedPort(ctx, nat.Port(ServicePort+"/tcp"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%s", host, port.Port()), nil
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}
	return false, nil
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
