package sqlinline

const QInsertUsageEvent = `--sql 5c2d8f7e-91a4-4b3c-8e57-0a6b4d2c9f13
insert into usage_events(id, user_id, product_id, view_type, success, latency_ms, model_used, error_code, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::boolean, $5::int, nullif($6::text, ''), nullif($7::text, ''), now());
`
