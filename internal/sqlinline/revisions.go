package sqlinline

const QSelectRevisionHistory = `--sql 8b1f3d0a-4c52-4f0e-9a6f-2d9c0b5e7a11
select
  batch_id,
  revision_number,
  is_active,
  view_type,
  image_url,
  thumbnail_url,
  edit_prompt,
  model_used,
  created_at
from product_views
where product_id = $1::uuid
order by revision_number desc, view_type asc
limit $2::int;
`

const QSelectActiveBatchViews = `--sql 3e7a9c44-0d1b-4e26-bb58-6f2a81c4d9e0
select
  batch_id,
  revision_number,
  view_type,
  image_url,
  thumbnail_url,
  edit_prompt,
  model_used,
  created_at
from product_views
where product_id = $1::uuid
  and is_active = true
order by view_type asc;
`
