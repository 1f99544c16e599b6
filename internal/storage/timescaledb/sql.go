package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`

const createHypertableSQL = `SELECT create_hypertable('weatherlink_readings', 'time', chunk_time_interval => INTERVAL '1 day', if_not_exists => TRUE, migrate_data => TRUE);`

// hourly rollup; decimals stay NUMERIC so the averages are exact
const createHourlyViewSQL = `
CREATE MATERIALIZED VIEW IF NOT EXISTS weatherlink_readings_1h
WITH (timescaledb.continuous) AS
SELECT
    time_bucket('1 hour', time) AS bucket,
    station_name,
    avg(temperature_outside) AS temperature_outside,
    min(temperature_outside) AS temperature_outside_low,
    max(temperature_outside) AS temperature_outside_high,
    avg(humidity_outside) AS humidity_outside,
    avg(barometric_pressure) AS barometric_pressure,
    avg(wind_speed) AS wind_speed,
    max(wind_speed_high) AS wind_speed_high,
    max(rain_today) AS rain_today,
    max(solar_radiation) AS solar_radiation_high
FROM weatherlink_readings
GROUP BY bucket, station_name
WITH NO DATA;`
